package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
	AttemptStatusGraded     AttemptStatus = "graded"
	AttemptStatusTimedOut   AttemptStatus = "timed_out"
	AttemptStatusAbandoned  AttemptStatus = "abandoned"
)

// AnswerStatus tracks the per-question lifecycle:
// unanswered -> answered -> validated -> scored.
// A failed validation drops the answer back to answered until the learner
// edits and resubmits; a fresh attempt restarts every answer at unanswered.
type AnswerStatus string

const (
	AnswerStatusUnanswered AnswerStatus = "unanswered"
	AnswerStatusAnswered   AnswerStatus = "answered"
	AnswerStatusValidated  AnswerStatus = "validated"
	AnswerStatusScored     AnswerStatus = "scored"
)

type QuizAttempt struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	PublicID  string `json:"public_id" gorm:"uniqueIndex;size:26;not null"`
	QuizID    uint   `json:"quiz_id" gorm:"not null;index"`
	StudentID string `json:"student_id" gorm:"not null;size:255;index"`

	Status        AttemptStatus `json:"status" gorm:"default:in_progress;index"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null;default:1"`

	StartedAt   time.Time  `json:"started_at"`
	EndTime     *time.Time `json:"end_time"` // nil when the quiz is untimed
	SubmittedAt *time.Time `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at"`

	// Scoring summary, filled once grading completes.
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	Percentage    float64 `json:"percentage"`
	Passed        bool    `json:"passed"`
	PendingCount  int     `json:"pending_count"`
	PartiallyDone bool    `json:"partially_graded" gorm:"column:partially_graded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz    Quiz            `json:"quiz" gorm:"foreignKey:QuizID"`
	Answers []StudentAnswer `json:"answers" gorm:"foreignKey:AttemptID"`
}

// StudentAnswer is the persisted answer for one question within an attempt.
// AnswerData is an immutable snapshot taken when the learner saves; the
// scoring engine only ever sees these snapshots, never a live draft.
type StudentAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`

	Status     AnswerStatus   `json:"status" gorm:"default:unanswered"`
	AnswerData datatypes.JSON `json:"answer_data" gorm:"type:jsonb"`
	TimeSpent  int            `json:"time_spent"` // seconds

	// Grading outcome. Pending answers (essay, code) keep Score at 0 and
	// IsPending true until a grader overrides them; a pending zero must
	// never be read as "wrong".
	Score          float64    `json:"score"`
	MaxScore       float64    `json:"max_score"`
	IsFullyCorrect bool       `json:"is_fully_correct"`
	IsPending      bool       `json:"is_pending"`
	GradedBy       *string    `json:"graded_by" gorm:"size:255"`
	GradedAt       *time.Time `json:"graded_at"`
	Feedback       *string    `json:"feedback" gorm:"type:text"`

	// Verdict breakdown persisted for the score-breakdown display.
	VerdictData datatypes.JSON `json:"verdict_data" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}
