package scoring

import (
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// matchMultipleChoice compares the selected option id against the single
// correct option id.
func matchMultipleChoice(q *models.Question, answerData []byte) (Verdict, error) {
	var content models.MultipleChoiceContent
	if err := decodeContent(q, &content); err != nil {
		return Verdict{}, err
	}
	if len(content.Options) < 2 {
		return Verdict{}, malformed(q, "needs at least 2 options, has %d", len(content.Options))
	}
	if content.CorrectOptionID == "" {
		return Verdict{}, malformed(q, "correct option id is empty")
	}
	if !hasOption(content.Options, content.CorrectOptionID) {
		return Verdict{}, malformed(q, "correct option %q is not among the options", content.CorrectOptionID)
	}

	var answer models.MultipleChoiceAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return Verdict{}, err
	}
	return singleVerdict(answer.SelectedOptionID != "" && answer.SelectedOptionID == content.CorrectOptionID), nil
}

// matchTrueFalse compares the boolean selection against the key. A missing
// selection counts as incorrect, not as an error; completeness is the
// answer validator's concern.
func matchTrueFalse(q *models.Question, answerData []byte) (Verdict, error) {
	var content models.TrueFalseContent
	if err := decodeContent(q, &content); err != nil {
		return Verdict{}, err
	}

	var answer models.TrueFalseAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return Verdict{}, err
	}
	return singleVerdict(answer.Value != nil && *answer.Value == content.CorrectAnswer), nil
}

// matchCheckbox counts selections against the set of options flagged
// correct. Duplicate ids in the payload are collapsed, and ids that name no
// option count as incorrect selections.
func matchCheckbox(q *models.Question, answerData []byte) (Verdict, error) {
	var content models.CheckboxContent
	if err := decodeContent(q, &content); err != nil {
		return Verdict{}, err
	}
	if len(content.Options) < 2 {
		return Verdict{}, malformed(q, "needs at least 2 options, has %d", len(content.Options))
	}

	correct := make(map[string]bool, len(content.Options))
	for _, opt := range content.Options {
		if opt.IsCorrect {
			correct[opt.ID] = true
		}
	}
	if len(correct) == 0 {
		return Verdict{}, malformed(q, "no option is marked correct")
	}

	var answer models.CheckboxAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return Verdict{}, err
	}

	selected := make(map[string]bool, len(answer.SelectedOptionIDs))
	for _, id := range answer.SelectedOptionIDs {
		selected[id] = true
	}

	v := Verdict{Total: len(correct)}
	for id := range selected {
		if correct[id] {
			v.Correct++
		} else {
			v.Incorrect++
		}
	}
	v.Missed = v.Total - v.Correct
	return v, nil
}

func hasOption(options []models.ChoiceOption, id string) bool {
	for _, opt := range options {
		if opt.ID == id {
			return true
		}
	}
	return false
}
