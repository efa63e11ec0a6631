package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/validator"
)

func newQuestionService(repo *MockRepository) QuestionService {
	return NewQuestionService(repo, testLogger(), validator.New())
}

func TestCreateQuestion(t *testing.T) {
	repo := NewMockRepository()
	svc := newQuestionService(repo)

	repo.MockUser.On("GetByID", mock.Anything, "teacher-1").Return(teacherUser("teacher-1"), nil)
	repo.MockQuestion.On("Create", mock.Anything, mock.AnythingOfType("*models.Question")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Question).ID = 10
		}).Return(nil)

	req := &CreateQuestionRequest{
		Type:   models.TrueFalse,
		Text:   "The instrumental case answers the question kem/chem.",
		Points: 2,
		Content: mustContent(t, models.TrueFalseContent{
			CorrectAnswer: true,
		}),
	}
	question, err := svc.Create(context.Background(), req, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, uint(10), question.ID)
	assert.Equal(t, models.DifficultyMedium, question.Difficulty)
	assert.Equal(t, "teacher-1", question.CreatedBy)
}

func TestCreateQuestion_InvalidContent(t *testing.T) {
	repo := NewMockRepository()
	svc := newQuestionService(repo)

	repo.MockUser.On("GetByID", mock.Anything, "teacher-1").Return(teacherUser("teacher-1"), nil)

	// Multiple choice content with a correct option that is not in the list.
	req := &CreateQuestionRequest{
		Type:   models.MultipleChoice,
		Text:   "Broken",
		Points: 2,
		Content: mustContent(t, models.MultipleChoiceContent{
			Options: []models.ChoiceOption{
				{ID: "opt-a", Text: "A"},
				{ID: "opt-b", Text: "B"},
			},
			CorrectOptionID: "opt-z",
		}),
	}
	_, err := svc.Create(context.Background(), req, "teacher-1")
	assert.ErrorIs(t, err, ErrQuestionInvalidContent)
	repo.MockQuestion.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateQuestion_StudentRejected(t *testing.T) {
	repo := NewMockRepository()
	svc := newQuestionService(repo)

	repo.MockUser.On("GetByID", mock.Anything, "student-1").Return(studentUser("student-1"), nil)

	req := &CreateQuestionRequest{
		Type:    models.TrueFalse,
		Text:    "Forbidden",
		Points:  1,
		Content: mustContent(t, models.TrueFalseContent{CorrectAnswer: false}),
	}
	_, err := svc.Create(context.Background(), req, "student-1")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestUpdateQuestion_ContentFrozenOnceInUse(t *testing.T) {
	repo := NewMockRepository()
	svc := newQuestionService(repo)

	question := multipleChoiceQuestion(t, 10, 2)
	repo.MockQuestion.On("GetByID", mock.Anything, uint(10)).Return(&question, nil)
	repo.MockQuestion.On("IsUsedInQuizzes", mock.Anything, uint(10)).Return(true, nil)

	req := &UpdateQuestionRequest{
		Content: mustContent(t, models.MultipleChoiceContent{
			Options: []models.ChoiceOption{
				{ID: "opt-a", Text: "Changed"},
				{ID: "opt-b", Text: "B"},
			},
			CorrectOptionID: "opt-b",
		}),
	}
	_, err := svc.Update(context.Background(), 10, req, "teacher-1")
	require.Error(t, err)
	assert.True(t, IsBusinessRule(err))
	repo.MockQuestion.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateQuestion_MetadataAllowedWhileInUse(t *testing.T) {
	repo := NewMockRepository()
	svc := newQuestionService(repo)

	question := multipleChoiceQuestion(t, 10, 2)
	repo.MockQuestion.On("GetByID", mock.Anything, uint(10)).Return(&question, nil)
	repo.MockQuestion.On("Update", mock.Anything, mock.AnythingOfType("*models.Question")).Return(nil)

	// Text and points do not touch the answer key, so usage is not checked.
	text := "Rephrased question"
	points := 3
	updated, err := svc.Update(context.Background(), 10, &UpdateQuestionRequest{Text: &text, Points: &points}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "Rephrased question", updated.Text)
	assert.Equal(t, 3, updated.Points)
	repo.MockQuestion.AssertNotCalled(t, "IsUsedInQuizzes", mock.Anything, mock.Anything)
}

func TestDeleteQuestion_InUseRejected(t *testing.T) {
	repo := NewMockRepository()
	svc := newQuestionService(repo)

	question := multipleChoiceQuestion(t, 10, 2)
	repo.MockQuestion.On("GetByID", mock.Anything, uint(10)).Return(&question, nil)
	repo.MockQuestion.On("IsUsedInQuizzes", mock.Anything, uint(10)).Return(true, nil)

	err := svc.Delete(context.Background(), 10, "teacher-1")
	assert.ErrorIs(t, err, ErrQuestionNotDeletable)
}

func TestDeleteQuestion(t *testing.T) {
	repo := NewMockRepository()
	svc := newQuestionService(repo)

	question := multipleChoiceQuestion(t, 10, 2)
	repo.MockQuestion.On("GetByID", mock.Anything, uint(10)).Return(&question, nil)
	repo.MockQuestion.On("IsUsedInQuizzes", mock.Anything, uint(10)).Return(false, nil)
	repo.MockQuestion.On("Delete", mock.Anything, uint(10)).Return(nil)

	err := svc.Delete(context.Background(), 10, "teacher-1")
	require.NoError(t, err)
}

func TestListQuestions_TeacherScopedToOwn(t *testing.T) {
	repo := NewMockRepository()
	svc := newQuestionService(repo)

	repo.MockUser.On("GetByID", mock.Anything, "teacher-1").Return(teacherUser("teacher-1"), nil)
	repo.MockQuestion.On("List", mock.Anything, mock.MatchedBy(func(f repositories.QuestionFilters) bool {
		return f.CreatedBy != nil && *f.CreatedBy == "teacher-1"
	})).Return([]*models.Question{}, int64(0), nil)

	_, err := svc.List(context.Background(), repositories.QuestionFilters{Limit: 20}, "teacher-1")
	require.NoError(t, err)
}
