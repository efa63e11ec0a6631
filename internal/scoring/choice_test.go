package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

func mcqContent() models.MultipleChoiceContent {
	return models.MultipleChoiceContent{
		Options: []models.ChoiceOption{
			{ID: "opt-a", Text: "Alpha"},
			{ID: "opt-b", Text: "Beta"},
			{ID: "opt-c", Text: "Gamma"},
		},
		CorrectOptionID: "opt-b",
	}
}

func TestMatchMultipleChoice(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		want     Verdict
	}{
		{"correct option", "opt-b", Verdict{Correct: 1, Total: 1}},
		{"wrong option", "opt-a", Verdict{Incorrect: 1, Missed: 1, Total: 1}},
		{"unknown option id", "opt-z", Verdict{Incorrect: 1, Missed: 1, Total: 1}},
		{"no selection", "", Verdict{Incorrect: 1, Missed: 1, Total: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newQuestion(t, models.MultipleChoice, 10, mcqContent())
			answer := marshalAnswer(t, models.MultipleChoiceAnswer{SelectedOptionID: tt.selected})

			got, err := Match(q, answer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchMultipleChoiceMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content models.MultipleChoiceContent
	}{
		{"no options", models.MultipleChoiceContent{CorrectOptionID: "opt-a"}},
		{"single option", models.MultipleChoiceContent{
			Options:         []models.ChoiceOption{{ID: "opt-a", Text: "Alpha"}},
			CorrectOptionID: "opt-a",
		}},
		{"empty correct id", models.MultipleChoiceContent{
			Options: []models.ChoiceOption{{ID: "opt-a"}, {ID: "opt-b"}},
		}},
		{"correct id not among options", models.MultipleChoiceContent{
			Options:         []models.ChoiceOption{{ID: "opt-a"}, {ID: "opt-b"}},
			CorrectOptionID: "opt-z",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newQuestion(t, models.MultipleChoice, 10, tt.content)
			answer := marshalAnswer(t, models.MultipleChoiceAnswer{SelectedOptionID: "opt-a"})

			_, err := Match(q, answer)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedQuestion)

			var mErr *MalformedQuestionError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, uint(1), mErr.QuestionID)
		})
	}
}

func TestMatchTrueFalse(t *testing.T) {
	tests := []struct {
		name  string
		key   bool
		value *bool
		want  Verdict
	}{
		{"true key matched", true, boolPtr(true), Verdict{Correct: 1, Total: 1}},
		{"true key missed", true, boolPtr(false), Verdict{Incorrect: 1, Missed: 1, Total: 1}},
		{"false key matched", false, boolPtr(false), Verdict{Correct: 1, Total: 1}},
		{"no selection", true, nil, Verdict{Incorrect: 1, Missed: 1, Total: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newQuestion(t, models.TrueFalse, 5, models.TrueFalseContent{CorrectAnswer: tt.key})
			answer := marshalAnswer(t, models.TrueFalseAnswer{Value: tt.value})

			got, err := Match(q, answer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func checkboxContent(partial, penalize bool) models.CheckboxContent {
	return models.CheckboxContent{
		Options: []models.CheckboxOption{
			{ID: "opt-a", Text: "Alpha", IsCorrect: true},
			{ID: "opt-b", Text: "Beta"},
			{ID: "opt-c", Text: "Gamma", IsCorrect: true},
			{ID: "opt-d", Text: "Delta"},
		},
		PartialCredit:     partial,
		PenalizeIncorrect: penalize,
	}
}

func TestMatchCheckbox(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
		want     Verdict
	}{
		{"all correct", []string{"opt-a", "opt-c"}, Verdict{Correct: 2, Total: 2}},
		{"order irrelevant", []string{"opt-c", "opt-a"}, Verdict{Correct: 2, Total: 2}},
		{"one right one wrong", []string{"opt-a", "opt-b"}, Verdict{Correct: 1, Incorrect: 1, Missed: 1, Total: 2}},
		{"only wrong", []string{"opt-b", "opt-d"}, Verdict{Incorrect: 2, Missed: 2, Total: 2}},
		{"duplicates collapse", []string{"opt-a", "opt-a", "opt-c"}, Verdict{Correct: 2, Total: 2}},
		{"nothing selected", nil, Verdict{Missed: 2, Total: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newQuestion(t, models.Checkbox, 10, checkboxContent(false, false))
			answer := marshalAnswer(t, models.CheckboxAnswer{SelectedOptionIDs: tt.selected})

			got, err := Match(q, answer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchChoiceContentOrderIrrelevant(t *testing.T) {
	// Matching is id-based, so reordering the authored option list (which is
	// all a shuffled presentation amounts to) never changes the verdict.
	t.Run("multiple choice", func(t *testing.T) {
		content := mcqContent()
		content.ShuffleOptions = true
		answer := marshalAnswer(t, models.MultipleChoiceAnswer{SelectedOptionID: "opt-b"})

		base, err := Match(newQuestion(t, models.MultipleChoice, 10, content), answer)
		require.NoError(t, err)

		content.Options = []models.ChoiceOption{content.Options[2], content.Options[0], content.Options[1]}
		permuted, err := Match(newQuestion(t, models.MultipleChoice, 10, content), answer)
		require.NoError(t, err)
		assert.Equal(t, base, permuted)
		assert.Equal(t, Verdict{Correct: 1, Total: 1}, permuted)
	})

	t.Run("checkbox", func(t *testing.T) {
		content := checkboxContent(false, false)
		content.ShuffleOptions = true
		answer := marshalAnswer(t, models.CheckboxAnswer{SelectedOptionIDs: []string{"opt-a", "opt-b"}})

		base, err := Match(newQuestion(t, models.Checkbox, 10, content), answer)
		require.NoError(t, err)

		content.Options = []models.CheckboxOption{
			content.Options[3], content.Options[1], content.Options[2], content.Options[0],
		}
		permuted, err := Match(newQuestion(t, models.Checkbox, 10, content), answer)
		require.NoError(t, err)
		assert.Equal(t, base, permuted)
		assert.Equal(t, Verdict{Correct: 1, Incorrect: 1, Missed: 1, Total: 2}, permuted)
	})
}

func TestMatchCheckboxMalformed(t *testing.T) {
	t.Run("no correct option", func(t *testing.T) {
		content := models.CheckboxContent{
			Options: []models.CheckboxOption{{ID: "opt-a"}, {ID: "opt-b"}},
		}
		q := newQuestion(t, models.Checkbox, 10, content)

		_, err := Match(q, marshalAnswer(t, models.CheckboxAnswer{SelectedOptionIDs: []string{"opt-a"}}))
		assert.ErrorIs(t, err, ErrMalformedQuestion)
	})

	t.Run("empty content", func(t *testing.T) {
		q := &models.Question{ID: 7, Type: models.Checkbox, Points: 10}

		_, err := Match(q, nil)
		assert.ErrorIs(t, err, ErrMalformedQuestion)
	})
}

func TestMatchUnsupportedType(t *testing.T) {
	q := &models.Question{ID: 1, Type: models.QuestionType("ranking"), Points: 10}

	_, err := Match(q, nil)
	assert.ErrorIs(t, err, ErrUnsupportedQuestionType)
}

func TestMatchMalformedAnswerPayload(t *testing.T) {
	q := newQuestion(t, models.MultipleChoice, 10, mcqContent())

	_, err := Match(q, []byte(`{"selected_option_id": 42}`))
	assert.ErrorIs(t, err, ErrMalformedAnswer)
}
