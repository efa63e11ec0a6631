package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestValidateQuestion(t *testing.T) {
	v := NewQuestionValidator()

	content := mustJSON(t, models.MultipleChoiceContent{
		Options: []models.ChoiceOption{
			{ID: "a", Text: "Alpha"},
			{ID: "b", Text: "Beta"},
		},
		CorrectOptionID: "a",
	})

	t.Run("valid question", func(t *testing.T) {
		q := &models.Question{Type: models.MultipleChoice, Text: "pick one", Points: 10, Content: content}
		assert.NoError(t, v.ValidateQuestion(q))
	})

	t.Run("empty text", func(t *testing.T) {
		q := &models.Question{Type: models.MultipleChoice, Points: 10, Content: content}
		assert.Error(t, v.ValidateQuestion(q))
	})

	t.Run("points out of range", func(t *testing.T) {
		q := &models.Question{Type: models.MultipleChoice, Text: "pick one", Points: 150, Content: content}
		assert.Error(t, v.ValidateQuestion(q))
	})
}

func TestValidateContentPerType(t *testing.T) {
	v := NewQuestionValidator()

	tests := []struct {
		name    string
		qType   models.QuestionType
		content interface{}
		wantErr string
	}{
		{
			name:  "multiple choice correct id missing",
			qType: models.MultipleChoice,
			content: models.MultipleChoiceContent{
				Options: []models.ChoiceOption{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
			},
			wantErr: "correct option",
		},
		{
			name:  "checkbox without correct options",
			qType: models.Checkbox,
			content: models.CheckboxContent{
				Options: []models.CheckboxOption{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
			},
			wantErr: "at least 1 option as correct",
		},
		{
			name:  "checkbox min above max",
			qType: models.Checkbox,
			content: func() models.CheckboxContent {
				min, max := 3, 2
				return models.CheckboxContent{
					Options: []models.CheckboxOption{
						{ID: "a", Text: "A", IsCorrect: true},
						{ID: "b", Text: "B"},
						{ID: "c", Text: "C"},
					},
					MinSelections: &min,
					MaxSelections: &max,
				}
			}(),
			wantErr: "cannot exceed maximum",
		},
		{
			name:    "fill blank without template",
			qType:   models.FillBlank,
			content: models.FillBlankContent{Blanks: []models.BlankField{{ID: "b1", CorrectAnswers: []string{"x"}}}},
			wantErr: "template is required",
		},
		{
			name:  "fill blank duplicate blank id",
			qType: models.FillBlank,
			content: models.FillBlankContent{
				Template: "{{b1}} {{b1}}",
				Blanks: []models.BlankField{
					{ID: "b1", CorrectAnswers: []string{"x"}},
					{ID: "b1", CorrectAnswers: []string{"y"}},
				},
			},
			wantErr: "duplicate blank",
		},
		{
			name:  "matching pair references unknown item",
			qType: models.Matching,
			content: models.MatchingContent{
				LeftItems:    []models.MatchingItem{{ID: "l1", Text: "L1"}, {ID: "l2", Text: "L2"}},
				RightItems:   []models.MatchingItem{{ID: "r1", Text: "R1"}, {ID: "r2", Text: "R2"}},
				CorrectPairs: []models.MatchPair{{LeftID: "l9", RightID: "r1"}},
			},
			wantErr: "non-existent left item",
		},
		{
			name:  "drag drop key references unknown zone",
			qType: models.DragDrop,
			content: models.DragDropContent{
				Items:             []models.DragDropItem{{ID: "i1", Content: "one"}},
				Zones:             []models.DropZone{{ID: "z1", Label: "Zone"}},
				CorrectPlacements: map[string][]string{"z9": {"i1"}},
			},
			wantErr: "non-existent zone",
		},
		{
			name:    "code input without language",
			qType:   models.CodeInput,
			content: models.CodeInputContent{},
			wantErr: "language is required",
		},
		{
			name:  "essay min above max",
			qType: models.Essay,
			content: func() models.EssayContent {
				min, max := 100, 50
				return models.EssayContent{MinWords: &min, MaxWords: &max}
			}(),
			wantErr: "cannot be greater than maximum",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateContent(tt.qType, mustJSON(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateBatch(t *testing.T) {
	v := NewQuestionValidator()

	assert.Error(t, v.ValidateBatch(nil))

	good := &models.Question{
		Type:   models.TrueFalse,
		Text:   "sky is blue",
		Points: 5,
		Content: mustJSON(t, models.TrueFalseContent{CorrectAnswer: true}),
	}
	bad := &models.Question{Type: models.TrueFalse, Text: "", Points: 5, Content: good.Content}

	assert.NoError(t, v.ValidateBatch([]*models.Question{good}))

	err := v.ValidateBatch([]*models.Question{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question 2")
}

func TestCustomStructValidators(t *testing.T) {
	v := New()

	type payload struct {
		Type       string `validate:"question_type"`
		Difficulty string `validate:"difficulty_level"`
		Role       string `validate:"user_role"`
		Status     string `validate:"quiz_status"`
	}

	assert.NoError(t, v.ValidateStruct(payload{
		Type:       "drag_drop",
		Difficulty: "medium",
		Role:       "teacher",
		Status:     "active",
	}))

	assert.Error(t, v.ValidateStruct(payload{
		Type:       "ranking",
		Difficulty: "medium",
		Role:       "teacher",
		Status:     "active",
	}))
}
