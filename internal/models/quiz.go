package models

import (
	"time"

	"gorm.io/gorm"
)

type QuizStatus string

const (
	QuizStatusDraft    QuizStatus = "draft"
	QuizStatusActive   QuizStatus = "active"
	QuizStatusArchived QuizStatus = "archived"
)

type Quiz struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Title        string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description  *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status       QuizStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft active archived"`
	PassingScore int        `json:"passing_score" gorm:"not null;default:70" validate:"min=0,max=100"`
	MaxAttempts  int        `json:"max_attempts" gorm:"default:1" validate:"min=1,max=10"`

	// TimeLimit is in minutes; nil means untimed.
	TimeLimit *int       `json:"time_limit" validate:"omitempty,min=1,max=300"`
	DueDate   *time.Time `json:"due_date"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Settings  QuizSettings   `json:"settings" gorm:"foreignKey:QuizID"`
	Questions []QuizQuestion `json:"questions" gorm:"foreignKey:QuizID"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
	TotalPoints   int `json:"total_points" gorm:"-"`
}

// QuizSettings are presentation and policy knobs the taking UI consumes.
// Shuffling is display-only: scoring operates on stable ids and is
// insensitive to option order.
type QuizSettings struct {
	QuizID uint `json:"quiz_id" gorm:"primaryKey"`

	ShuffleQuestions bool `json:"shuffle_questions" gorm:"default:false"`
	ShuffleOptions   bool `json:"shuffle_options" gorm:"default:false"`

	ShowResults        bool `json:"show_results" gorm:"default:true"`
	ShowCorrectAnswers bool `json:"show_correct_answers" gorm:"default:true"`
	ShowScoreBreakdown bool `json:"show_score_breakdown" gorm:"default:true"`

	AllowRetake bool `json:"allow_retake" gorm:"default:false"`
	RetakeDelay int  `json:"retake_delay" gorm:"default:0"` // minutes

	AutoSubmitOnTimeout bool `json:"auto_submit_on_timeout" gorm:"default:true"`
	AutoSaveInterval    int  `json:"auto_save_interval" gorm:"default:30"` // seconds
}

// QuizQuestion links a question into a quiz with its position and an
// optional per-quiz points override.
type QuizQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	QuizID     uint `json:"quiz_id" gorm:"not null;uniqueIndex:idx_quiz_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_quiz_question"`
	Order      int  `json:"order" gorm:"not null"`
	Points     *int `json:"points" validate:"omitempty,min=1,max=100"`

	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

// EffectivePoints returns the per-quiz override when present, otherwise the
// question's own point value.
func (qq *QuizQuestion) EffectivePoints() int {
	if qq.Points != nil {
		return *qq.Points
	}
	return qq.Question.Points
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
