package scoring

import (
	"errors"
	"fmt"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// ===== SENTINEL ERRORS =====

var (
	// ErrMalformedQuestion marks question content that violates the
	// authoring invariants for its type. Matchers fail fast on it instead
	// of guessing a verdict.
	ErrMalformedQuestion = errors.New("malformed question content")

	// ErrUnsupportedQuestionType is returned when a question carries a
	// type the engine has no matcher for.
	ErrUnsupportedQuestionType = errors.New("unsupported question type")

	// ErrMalformedAnswer marks an answer payload that does not decode to
	// the shape the question type expects.
	ErrMalformedAnswer = errors.New("malformed answer payload")
)

// ===== ERROR TYPES =====

// MalformedQuestionError carries which question was broken and why. It
// unwraps to ErrMalformedQuestion so callers can match with errors.Is.
type MalformedQuestionError struct {
	QuestionID uint
	Type       models.QuestionType
	Reason     string
}

func (e *MalformedQuestionError) Error() string {
	return fmt.Sprintf("question %d (%s): %s", e.QuestionID, e.Type, e.Reason)
}

func (e *MalformedQuestionError) Unwrap() error {
	return ErrMalformedQuestion
}

func malformed(q *models.Question, format string, args ...interface{}) error {
	return &MalformedQuestionError{
		QuestionID: q.ID,
		Type:       q.Type,
		Reason:     fmt.Sprintf(format, args...),
	}
}
