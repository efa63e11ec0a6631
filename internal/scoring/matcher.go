// Package scoring implements the answer matching and scoring engine.
//
// The engine is pure: it reads question content and a submitted answer
// payload, produces a Verdict (raw correctness breakdown) and a
// ScoredResult (points after the question's credit policy). It performs no
// I/O and holds no state, so identical inputs always produce identical
// outputs. Persistence, transport and event publishing live in the service
// layer on top of it.
package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// Match decodes the question content and the submitted answer payload and
// dispatches to the matcher for the question's type. A nil or empty
// answerData is treated as an unanswered submission: each matcher produces
// the verdict a blank answer earns (everything missed, nothing credited).
//
// Matching is id-based throughout. Option order, pair order and placement
// order in the payload never affect the verdict, so shuffled presentation
// is irrelevant to scoring.
//
// It returns a MalformedQuestionError when the content violates the
// authoring invariants for its type, and ErrUnsupportedQuestionType for a
// type the engine does not know.
func Match(q *models.Question, answerData []byte) (Verdict, error) {
	switch q.Type {
	case models.MultipleChoice:
		return matchMultipleChoice(q, answerData)
	case models.TrueFalse:
		return matchTrueFalse(q, answerData)
	case models.Checkbox:
		return matchCheckbox(q, answerData)
	case models.FillBlank:
		return matchFillBlank(q, answerData)
	case models.Matching:
		return matchMatching(q, answerData)
	case models.DragDrop:
		return matchDragDrop(q, answerData)
	case models.Essay, models.CodeInput:
		// Manually graded types always come back pending.
		return pendingVerdict(), nil
	default:
		return Verdict{}, ErrUnsupportedQuestionType
	}
}

func decodeContent(q *models.Question, dst interface{}) error {
	if len(q.Content) == 0 {
		return malformed(q, "content is empty")
	}
	if err := json.Unmarshal(q.Content, dst); err != nil {
		return malformed(q, "content does not decode: %v", err)
	}
	return nil
}

// decodeAnswer tolerates an absent payload by leaving dst at its zero
// value, so matchers see an empty answer rather than an error.
func decodeAnswer(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}
	return nil
}
