package validator

import (
	"encoding/json"
	"fmt"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// QuestionValidator handles question authoring validation. It enforces the
// per-type content invariants at write time so the scoring engine can rely
// on well-formed content at grading time.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a complete question object
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.Text == "" {
		return fmt.Errorf("question text is required")
	}

	if question.Points < 1 || question.Points > 100 {
		return fmt.Errorf("question points must be between 1 and 100")
	}

	return v.ValidateContent(question.Type, question.Content)
}

// ValidateContent validates question content based on question type
func (v *QuestionValidator) ValidateContent(questionType models.QuestionType, content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("content cannot be empty")
	}

	switch questionType {
	case models.MultipleChoice:
		return v.validateMultipleChoiceContent(content)
	case models.TrueFalse:
		return v.validateTrueFalseContent(content)
	case models.Essay:
		return v.validateEssayContent(content)
	case models.Checkbox:
		return v.validateCheckboxContent(content)
	case models.FillBlank:
		return v.validateFillBlankContent(content)
	case models.Matching:
		return v.validateMatchingContent(content)
	case models.DragDrop:
		return v.validateDragDropContent(content)
	case models.CodeInput:
		return v.validateCodeInputContent(content)
	default:
		return fmt.Errorf("unsupported question type: %s", questionType)
	}
}

// ValidateBatch validates multiple questions
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question batch cannot be empty")
	}

	for i, question := range questions {
		if err := v.ValidateQuestion(question); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
	}

	return nil
}

// ValidateUsage validates question usage constraints
func (v *QuestionValidator) ValidateUsage(isUsedInQuizzes bool, operation string) error {
	if isUsedInQuizzes && operation == "delete" {
		return fmt.Errorf("cannot delete question: it is used in active quizzes")
	}
	return nil
}

// Private validation methods for each question type

func (v *QuestionValidator) validateMultipleChoiceContent(content []byte) error {
	var c models.MultipleChoiceContent
	if err := json.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("invalid multiple choice content: %w", err)
	}

	if len(c.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}
	if len(c.Options) > 10 {
		return fmt.Errorf("cannot have more than 10 options")
	}

	optionIDs := make(map[string]bool)
	for _, option := range c.Options {
		if option.ID == "" || option.Text == "" {
			return fmt.Errorf("options must have both ID and text")
		}
		if optionIDs[option.ID] {
			return fmt.Errorf("duplicate option ID: %s", option.ID)
		}
		optionIDs[option.ID] = true
	}

	if c.CorrectOptionID == "" {
		return fmt.Errorf("must designate a correct option")
	}
	if !optionIDs[c.CorrectOptionID] {
		return fmt.Errorf("correct option ID '%s' does not match any option", c.CorrectOptionID)
	}

	return nil
}

func (v *QuestionValidator) validateTrueFalseContent(content []byte) error {
	var c models.TrueFalseContent
	if err := json.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("invalid true/false content: %w", err)
	}
	return nil
}

func (v *QuestionValidator) validateCheckboxContent(content []byte) error {
	var c models.CheckboxContent
	if err := json.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("invalid checkbox content: %w", err)
	}

	if len(c.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}
	if len(c.Options) > 15 {
		return fmt.Errorf("cannot have more than 15 options")
	}

	optionIDs := make(map[string]bool)
	correctCount := 0
	for _, option := range c.Options {
		if option.ID == "" || option.Text == "" {
			return fmt.Errorf("options must have both ID and text")
		}
		if optionIDs[option.ID] {
			return fmt.Errorf("duplicate option ID: %s", option.ID)
		}
		optionIDs[option.ID] = true
		if option.IsCorrect {
			correctCount++
		}
	}

	if correctCount == 0 {
		return fmt.Errorf("must mark at least 1 option as correct")
	}

	if c.MinSelections != nil && *c.MinSelections < 1 {
		return fmt.Errorf("minimum selections cannot be less than 1")
	}
	if c.MaxSelections != nil && *c.MaxSelections > len(c.Options) {
		return fmt.Errorf("maximum selections cannot exceed option count")
	}
	if c.MinSelections != nil && c.MaxSelections != nil && *c.MinSelections > *c.MaxSelections {
		return fmt.Errorf("minimum selections cannot exceed maximum")
	}

	return nil
}

func (v *QuestionValidator) validateEssayContent(content []byte) error {
	var c models.EssayContent
	if err := json.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("invalid essay content: %w", err)
	}

	if c.MinWords != nil && c.MaxWords != nil && *c.MinWords > *c.MaxWords {
		return fmt.Errorf("minimum word count cannot be greater than maximum")
	}
	if c.MinWords != nil && *c.MinWords < 0 {
		return fmt.Errorf("minimum word count cannot be negative")
	}
	if c.MaxWords != nil && *c.MaxWords < 0 {
		return fmt.Errorf("maximum word count cannot be negative")
	}

	return nil
}

func (v *QuestionValidator) validateFillBlankContent(content []byte) error {
	var c models.FillBlankContent
	if err := json.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("invalid fill-in-blank content: %w", err)
	}

	if c.Template == "" {
		return fmt.Errorf("template is required")
	}
	if len(c.Blanks) == 0 {
		return fmt.Errorf("must have at least 1 blank")
	}

	blankIDs := make(map[string]bool)
	for _, blank := range c.Blanks {
		if blank.ID == "" {
			return fmt.Errorf("blanks must have an ID")
		}
		if blankIDs[blank.ID] {
			return fmt.Errorf("duplicate blank ID: %s", blank.ID)
		}
		blankIDs[blank.ID] = true

		if len(blank.CorrectAnswers) == 0 {
			return fmt.Errorf("blank '%s' must have at least 1 accepted answer", blank.ID)
		}
		for i, answer := range blank.CorrectAnswers {
			if answer == "" {
				return fmt.Errorf("blank '%s' accepted answer %d cannot be empty", blank.ID, i+1)
			}
		}
	}

	return nil
}

func (v *QuestionValidator) validateMatchingContent(content []byte) error {
	var c models.MatchingContent
	if err := json.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("invalid matching content: %w", err)
	}

	if len(c.LeftItems) < 2 {
		return fmt.Errorf("must have at least 2 left items")
	}
	if len(c.RightItems) < 2 {
		return fmt.Errorf("must have at least 2 right items")
	}
	if len(c.LeftItems) > 10 || len(c.RightItems) > 10 {
		return fmt.Errorf("cannot have more than 10 items on each side")
	}
	if len(c.CorrectPairs) == 0 {
		return fmt.Errorf("must have at least 1 correct pair")
	}

	leftIDs := make(map[string]bool)
	rightIDs := make(map[string]bool)

	for _, item := range c.LeftItems {
		if item.ID == "" || item.Text == "" {
			return fmt.Errorf("left items must have both ID and text")
		}
		leftIDs[item.ID] = true
	}
	for _, item := range c.RightItems {
		if item.ID == "" || item.Text == "" {
			return fmt.Errorf("right items must have both ID and text")
		}
		rightIDs[item.ID] = true
	}

	pairedLeft := make(map[string]bool)
	for _, pair := range c.CorrectPairs {
		if !leftIDs[pair.LeftID] {
			return fmt.Errorf("correct pair references non-existent left item: %s", pair.LeftID)
		}
		if !rightIDs[pair.RightID] {
			return fmt.Errorf("correct pair references non-existent right item: %s", pair.RightID)
		}
		if pairedLeft[pair.LeftID] {
			return fmt.Errorf("left item '%s' appears in more than one correct pair", pair.LeftID)
		}
		pairedLeft[pair.LeftID] = true
	}

	return nil
}

func (v *QuestionValidator) validateDragDropContent(content []byte) error {
	var c models.DragDropContent
	if err := json.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("invalid drag-drop content: %w", err)
	}

	if len(c.Items) < 1 {
		return fmt.Errorf("must have at least 1 draggable item")
	}
	if len(c.Zones) < 1 {
		return fmt.Errorf("must have at least 1 drop zone")
	}
	if len(c.CorrectPlacements) == 0 {
		return fmt.Errorf("must define correct placements")
	}

	itemIDs := make(map[string]bool)
	for _, item := range c.Items {
		if item.ID == "" {
			return fmt.Errorf("items must have an ID")
		}
		if itemIDs[item.ID] {
			return fmt.Errorf("duplicate item ID: %s", item.ID)
		}
		itemIDs[item.ID] = true
	}

	zoneIDs := make(map[string]bool)
	for _, zone := range c.Zones {
		if zone.ID == "" {
			return fmt.Errorf("zones must have an ID")
		}
		if zoneIDs[zone.ID] {
			return fmt.Errorf("duplicate zone ID: %s", zone.ID)
		}
		zoneIDs[zone.ID] = true

		if zone.MinItems != nil && zone.MaxItems != nil && *zone.MinItems > *zone.MaxItems {
			return fmt.Errorf("zone '%s' minimum items cannot exceed maximum", zone.ID)
		}
	}

	keyed := 0
	for zoneID, placements := range c.CorrectPlacements {
		if !zoneIDs[zoneID] {
			return fmt.Errorf("placement key references non-existent zone: %s", zoneID)
		}
		for _, itemID := range placements {
			if !itemIDs[itemID] {
				return fmt.Errorf("placement key references non-existent item: %s", itemID)
			}
			keyed++
		}
	}
	if keyed == 0 {
		return fmt.Errorf("placement key cannot be empty")
	}

	return nil
}

func (v *QuestionValidator) validateCodeInputContent(content []byte) error {
	var c models.CodeInputContent
	if err := json.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("invalid code input content: %w", err)
	}

	if c.Language == "" {
		return fmt.Errorf("language is required")
	}

	return nil
}
