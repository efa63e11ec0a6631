package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Essay          QuestionType = "essay"
	Checkbox       QuestionType = "checkbox"
	FillBlank      QuestionType = "fill_blank"
	Matching       QuestionType = "matching"
	DragDrop       QuestionType = "drag_drop"
	CodeInput      QuestionType = "code_input"
)

// QuestionTypes lists every supported type, in display order.
var QuestionTypes = []QuestionType{
	MultipleChoice,
	TrueFalse,
	Essay,
	Checkbox,
	FillBlank,
	Matching,
	DragDrop,
	CodeInput,
}

// AutoGradable reports whether answers of this type can be scored without
// a human grader. Essay and code answers always await manual grading.
func (t QuestionType) AutoGradable() bool {
	return t != Essay && t != CodeInput
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type Question struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	Type       QuestionType    `json:"type" gorm:"not null;index" validate:"required,question_type"`
	Text       string          `json:"text" gorm:"not null;type:text" validate:"required,min=1,max=2000"`
	Points     int             `json:"points" gorm:"not null;default:1" validate:"required,min=1,max=100"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"default:medium" validate:"omitempty,difficulty_level"`
	Required   bool            `json:"required" gorm:"default:false"`

	// Content holds the type-specific correct-answer data as one of the
	// *Content structs below, discriminated by Type.
	Content datatypes.JSON `json:"content" gorm:"type:jsonb;not null" validate:"required"`

	Explanation *string `json:"explanation" gorm:"type:text"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// ===== TYPE-SPECIFIC CONTENT =====
//
// Options, blanks, items and zones are always addressed by their stable ids.
// Display order (including any shuffling) is a presentation concern; scoring
// never depends on array position.

type ChoiceOption struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type MultipleChoiceContent struct {
	Options         []ChoiceOption `json:"options" validate:"required,min=2,max=10,dive"`
	CorrectOptionID string         `json:"correct_option_id" validate:"required"`
	ShuffleOptions  bool           `json:"shuffle_options"`
}

type TrueFalseContent struct {
	CorrectAnswer bool `json:"correct_answer"`
}

type CheckboxOption struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type CheckboxContent struct {
	Options []CheckboxOption `json:"options" validate:"required,min=2,max=10,dive"`

	// Inclusive bounds on how many options a learner may select.
	// MinSelections defaults to 1, MaxSelections to len(Options).
	MinSelections *int `json:"min_selections" validate:"omitempty,min=1"`
	MaxSelections *int `json:"max_selections" validate:"omitempty,min=1"`

	PartialCredit     bool `json:"partial_credit"`
	PenalizeIncorrect bool `json:"penalize_incorrect"`
	ShuffleOptions    bool `json:"shuffle_options"`
}

type BlankField struct {
	ID             string   `json:"id" validate:"required"`
	CorrectAnswers []string `json:"correct_answers" validate:"required,min=1"`
}

type FillBlankContent struct {
	// Template is the question body with blank placeholders, kept for display.
	Template string       `json:"template"`
	Blanks   []BlankField `json:"blanks" validate:"required,min=1,dive"`

	CaseSensitive bool `json:"case_sensitive"`
	// ExactMatch requires equality after trimming; otherwise a substring
	// match in either direction is accepted.
	ExactMatch    bool `json:"exact_match"`
	PartialCredit bool `json:"partial_credit"`
}

type MatchingItem struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type MatchPair struct {
	LeftID  string `json:"left_id" validate:"required"`
	RightID string `json:"right_id" validate:"required"`
}

type MatchingContent struct {
	LeftItems  []MatchingItem `json:"left_items" validate:"required,min=2,max=10,dive"`
	RightItems []MatchingItem `json:"right_items" validate:"required,min=2,max=10,dive"`

	// Each left id appears in at most one correct pair; a left item without
	// a pair is a distractor.
	CorrectPairs []MatchPair `json:"correct_pairs" validate:"required,min=1,dive"`

	PartialCredit     bool `json:"partial_credit"`
	PenalizeIncorrect bool `json:"penalize_incorrect"`
}

type DragDropItem struct {
	ID      string `json:"id" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type DropZone struct {
	ID       string `json:"id" validate:"required"`
	Label    string `json:"label"`
	MinItems *int   `json:"min_items" validate:"omitempty,min=0"`
	MaxItems *int   `json:"max_items" validate:"omitempty,min=1"`
	Required bool   `json:"required"`
}

type DragDropContent struct {
	Items []DragDropItem `json:"items" validate:"required,min=1,dive"`
	Zones []DropZone     `json:"zones" validate:"required,min=1,dive"`

	// CorrectPlacements maps zone id to the item ids that belong there.
	CorrectPlacements map[string][]string `json:"correct_placements" validate:"required"`

	RequireAllItems   bool `json:"require_all_items"`
	PartialCredit     bool `json:"partial_credit"`
	PenalizeIncorrect bool `json:"penalize_incorrect"`
}

type EssayContent struct {
	MinWords    *int    `json:"min_words" validate:"omitempty,min=0"`
	MaxWords    *int    `json:"max_words" validate:"omitempty,min=1"`
	RubricNotes *string `json:"rubric_notes"`
}

type CodeInputContent struct {
	Language    string  `json:"language" validate:"required"`
	StarterCode *string `json:"starter_code"`
	// Sample solution shown to graders, never to learners.
	SampleSolution *string `json:"sample_solution"`
}
