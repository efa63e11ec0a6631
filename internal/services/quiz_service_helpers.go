package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// ===== RESPONSE BUILDERS =====

func buildQuizResponse(quiz *models.Quiz, questions []*QuizQuestionResponse) *QuizResponse {
	return &QuizResponse{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		Status:        quiz.Status,
		PassingScore:  quiz.PassingScore,
		MaxAttempts:   quiz.MaxAttempts,
		TimeLimit:     quiz.TimeLimit,
		DueDate:       quiz.DueDate,
		CreatedBy:     quiz.CreatedBy,
		CreatedAt:     quiz.CreatedAt,
		UpdatedAt:     quiz.UpdatedAt,
		Settings:      quiz.Settings,
		QuestionCount: quiz.QuestionCount,
		TotalPoints:   quiz.TotalPoints,
		Questions:     questions,
	}
}

func buildQuizQuestionResponse(qq *models.QuizQuestion, stripAnswers bool) (*QuizQuestionResponse, error) {
	content := qq.Question.Content
	if stripAnswers {
		stripped, err := stripAnswerKey(qq.Question.Type, content)
		if err != nil {
			return nil, err
		}
		content = stripped
	}

	return &QuizQuestionResponse{
		QuestionID: qq.QuestionID,
		Order:      qq.Order,
		Points:     qq.EffectivePoints(),
		Type:       qq.Question.Type,
		Text:       qq.Question.Text,
		Difficulty: qq.Question.Difficulty,
		Required:   qq.Question.Required,
		Content:    content,
	}, nil
}

// ===== ANSWER KEY STRIPPING =====

// stripAnswerKey removes correct-answer and grader-only data from question
// content so it can be sent to a learner taking the quiz. Stable ids and
// display data survive untouched.
func stripAnswerKey(questionType models.QuestionType, content datatypes.JSON) (datatypes.JSON, error) {
	switch questionType {
	case models.MultipleChoice:
		var c models.MultipleChoiceContent
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("decode multiple choice content: %w", err)
		}
		c.CorrectOptionID = ""
		return marshalContent(c)

	case models.TrueFalse:
		// Nothing beyond the answer itself; learners get an empty object.
		return datatypes.JSON(`{}`), nil

	case models.Checkbox:
		var c models.CheckboxContent
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("decode checkbox content: %w", err)
		}
		for i := range c.Options {
			c.Options[i].IsCorrect = false
		}
		return marshalContent(c)

	case models.FillBlank:
		var c models.FillBlankContent
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("decode fill blank content: %w", err)
		}
		for i := range c.Blanks {
			c.Blanks[i].CorrectAnswers = nil
		}
		return marshalContent(c)

	case models.Matching:
		var c models.MatchingContent
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("decode matching content: %w", err)
		}
		c.CorrectPairs = nil
		return marshalContent(c)

	case models.DragDrop:
		var c models.DragDropContent
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("decode drag drop content: %w", err)
		}
		c.CorrectPlacements = nil
		return marshalContent(c)

	case models.Essay:
		var c models.EssayContent
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("decode essay content: %w", err)
		}
		c.RubricNotes = nil
		return marshalContent(c)

	case models.CodeInput:
		var c models.CodeInputContent
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("decode code input content: %w", err)
		}
		c.SampleSolution = nil
		return marshalContent(c)

	default:
		return nil, fmt.Errorf("%w: %s", ErrQuestionInvalidType, questionType)
	}
}

func marshalContent(v interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode question content: %w", err)
	}
	return datatypes.JSON(data), nil
}
