package scoring

import (
	"fmt"
	"strings"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// ValidationResult is the structured outcome of checking an answer against
// the question's submission constraints. Validation never returns an error
// to the caller; anything wrong with the payload or the constraints shows
// up as entries in Errors.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

func invalid(errs ...string) *ValidationResult {
	return &ValidationResult{Errors: errs}
}

var valid = &ValidationResult{IsValid: true}

// ValidateAnswer checks the submission constraints for the question type:
// selection counts for checkbox and drag-drop, required selections for
// single-valued types, required entries for text types, and word bounds for
// essays. An answer that fails validation must not be scored; the caller
// keeps the question in its answered state and surfaces the errors.
func ValidateAnswer(q *models.Question, answerData []byte) *ValidationResult {
	switch q.Type {
	case models.MultipleChoice:
		return validateMultipleChoiceAnswer(q, answerData)
	case models.TrueFalse:
		return validateTrueFalseAnswer(q, answerData)
	case models.Checkbox:
		return validateCheckboxAnswer(q, answerData)
	case models.FillBlank:
		return validateFillBlankAnswer(q, answerData)
	case models.Matching:
		return validateMatchingAnswer(q, answerData)
	case models.DragDrop:
		return validateDragDropAnswer(q, answerData)
	case models.Essay:
		return validateEssayAnswer(q, answerData)
	case models.CodeInput:
		return validateCodeInputAnswer(q, answerData)
	default:
		return invalid(fmt.Sprintf("unsupported question type %q", q.Type))
	}
}

func validateMultipleChoiceAnswer(q *models.Question, answerData []byte) *ValidationResult {
	var answer models.MultipleChoiceAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return invalid("answer payload does not decode")
	}
	if answer.SelectedOptionID == "" {
		return invalid("no option selected")
	}
	return valid
}

func validateTrueFalseAnswer(q *models.Question, answerData []byte) *ValidationResult {
	var answer models.TrueFalseAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return invalid("answer payload does not decode")
	}
	if answer.Value == nil {
		return invalid("no value selected")
	}
	return valid
}

func validateCheckboxAnswer(q *models.Question, answerData []byte) *ValidationResult {
	var content models.CheckboxContent
	if err := decodeContent(q, &content); err != nil {
		return invalid(err.Error())
	}
	var answer models.CheckboxAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return invalid("answer payload does not decode")
	}

	count := len(uniqueStrings(answer.SelectedOptionIDs))
	min := 1
	if content.MinSelections != nil {
		min = *content.MinSelections
	}
	max := len(content.Options)
	if content.MaxSelections != nil {
		max = *content.MaxSelections
	}

	var errs []string
	if count == 0 {
		errs = append(errs, "select at least one option")
	} else if count < min {
		errs = append(errs, fmt.Sprintf("select at least %d options, got %d", min, count))
	}
	if count > max {
		errs = append(errs, fmt.Sprintf("select at most %d options, got %d", max, count))
	}
	if len(errs) > 0 {
		return invalid(errs...)
	}
	return valid
}

func validateFillBlankAnswer(q *models.Question, answerData []byte) *ValidationResult {
	var content models.FillBlankContent
	if err := decodeContent(q, &content); err != nil {
		return invalid(err.Error())
	}
	var answer models.FillBlankAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return invalid("answer payload does not decode")
	}
	if !q.Required {
		return valid
	}

	var errs []string
	for _, blank := range content.Blanks {
		if strings.TrimSpace(answer.Entries[blank.ID]) == "" {
			errs = append(errs, fmt.Sprintf("blank %q is empty", blank.ID))
		}
	}
	if len(errs) > 0 {
		return invalid(errs...)
	}
	return valid
}

// Matching carries no submission constraints; unpaired items simply score
// as missed.
func validateMatchingAnswer(q *models.Question, answerData []byte) *ValidationResult {
	var answer models.MatchingAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return invalid("answer payload does not decode")
	}
	if q.Required && len(answer.Pairs) == 0 {
		return invalid("no pairs submitted")
	}
	return valid
}

func validateDragDropAnswer(q *models.Question, answerData []byte) *ValidationResult {
	var content models.DragDropContent
	if err := decodeContent(q, &content); err != nil {
		return invalid(err.Error())
	}
	var answer models.DragDropAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return invalid("answer payload does not decode")
	}

	var errs []string
	placedCount := make(map[string]int, len(content.Items))
	for _, zone := range content.Zones {
		placed := uniqueStrings(answer.Placements[zone.ID])
		for _, itemID := range placed {
			placedCount[itemID]++
		}
		if zone.Required && len(placed) == 0 {
			errs = append(errs, fmt.Sprintf("zone %q requires at least one item", zone.ID))
			continue
		}
		if zone.MinItems != nil && len(placed) < *zone.MinItems {
			errs = append(errs, fmt.Sprintf("zone %q needs at least %d items, got %d", zone.ID, *zone.MinItems, len(placed)))
		}
		if zone.MaxItems != nil && len(placed) > *zone.MaxItems {
			errs = append(errs, fmt.Sprintf("zone %q holds at most %d items, got %d", zone.ID, *zone.MaxItems, len(placed)))
		}
	}
	if content.RequireAllItems {
		for _, item := range content.Items {
			switch placedCount[item.ID] {
			case 0:
				errs = append(errs, fmt.Sprintf("item %q is not placed", item.ID))
			case 1:
			default:
				errs = append(errs, fmt.Sprintf("item %q is placed in more than one zone", item.ID))
			}
		}
	}
	if len(errs) > 0 {
		return invalid(errs...)
	}
	return valid
}

func validateEssayAnswer(q *models.Question, answerData []byte) *ValidationResult {
	var content models.EssayContent
	if err := decodeContent(q, &content); err != nil {
		return invalid(err.Error())
	}
	var answer models.EssayAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return invalid("answer payload does not decode")
	}

	words := len(strings.Fields(answer.Text))
	if words == 0 {
		if q.Required {
			return invalid("essay text is empty")
		}
		return valid
	}
	var errs []string
	if content.MinWords != nil && words < *content.MinWords {
		errs = append(errs, fmt.Sprintf("essay needs at least %d words, got %d", *content.MinWords, words))
	}
	if content.MaxWords != nil && words > *content.MaxWords {
		errs = append(errs, fmt.Sprintf("essay exceeds %d words, got %d", *content.MaxWords, words))
	}
	if len(errs) > 0 {
		return invalid(errs...)
	}
	return valid
}

func validateCodeInputAnswer(q *models.Question, answerData []byte) *ValidationResult {
	var answer models.CodeInputAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return invalid("answer payload does not decode")
	}
	if q.Required && strings.TrimSpace(answer.Code) == "" {
		return invalid("code is empty")
	}
	return valid
}

// IsAnswerComplete reports whether the payload would pass submission
// validation, without the error detail. UIs use it to gate a submit action.
func IsAnswerComplete(q *models.Question, answerData []byte) bool {
	if len(answerData) == 0 {
		return false
	}
	return ValidateAnswer(q, answerData).IsValid
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
