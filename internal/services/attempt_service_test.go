package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/events"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/validator"
)

func newAttemptService(repo *MockRepository, publisher events.EventPublisher, grading GradingService) AttemptService {
	if grading == nil {
		grading = &MockGradingService{}
	}
	return NewAttemptService(repo, testLogger(), validator.New(), publisher, grading)
}

func attemptQuiz(t *testing.T) *models.Quiz {
	t.Helper()
	mcq := multipleChoiceQuestion(t, 10, 2)
	essay := essayQuestion(t, 11, 5)
	return activeQuiz(
		models.QuizQuestion{QuizID: 1, QuestionID: 10, Order: 1, Question: mcq},
		models.QuizQuestion{QuizID: 1, QuestionID: 11, Order: 2, Question: essay},
	)
}

// ===== START =====

func TestStartAttempt_CreatesAnswerRows(t *testing.T) {
	repo := NewMockRepository()
	publisher := testPublisher()
	svc := newAttemptService(repo, publisher, nil)

	quiz := attemptQuiz(t)
	limit := 30
	quiz.TimeLimit = &limit

	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.MockAttempt.On("GetActiveAttempt", mock.Anything, "student-1", uint(1)).Return(nil, nil)
	repo.MockAttempt.On("GetByStudentAndQuiz", mock.Anything, "student-1", uint(1)).Return([]*models.QuizAttempt{}, nil)
	repo.MockAttempt.On("GetAttemptCount", mock.Anything, "student-1", uint(1)).Return(0, nil)
	repo.MockAttempt.On("Create", mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.QuizAttempt).ID = 42
		}).Return(nil)
	repo.MockAnswer.On("Create", mock.Anything, mock.AnythingOfType("*models.StudentAnswer")).Return(nil)
	repo.MockAnswer.On("CountByStatus", mock.Anything, uint(42)).Return(map[models.AnswerStatus]int{
		models.AnswerStatusUnanswered: 2,
	}, nil)

	resp, err := svc.Start(context.Background(), 1, "student-1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.PublicID)
	assert.Len(t, resp.PublicID, 26)
	assert.Equal(t, 1, resp.AttemptNumber)
	assert.Equal(t, models.AttemptStatusInProgress, resp.Status)
	assert.Equal(t, 2, resp.QuestionCount)
	assert.Equal(t, 0, resp.AnsweredCount)
	require.NotNil(t, resp.EndTime)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *resp.EndTime, 5*time.Second)

	repo.MockAnswer.AssertNumberOfCalls(t, "Create", 2)
	assert.Contains(t, publishedTypes(publisher), events.EventAttemptStarted)
}

func TestStartAttempt_QuizNotActive(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	quiz.Status = models.QuizStatusDraft
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)

	_, err := svc.Start(context.Background(), 1, "student-1")
	assert.ErrorIs(t, err, ErrQuizNotActive)
}

func TestStartAttempt_PastDueDate(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	quiz.DueDate = timePtr(time.Now().Add(-time.Hour))
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)

	_, err := svc.Start(context.Background(), 1, "student-1")
	assert.ErrorIs(t, err, ErrQuizExpired)
}

func TestStartAttempt_LimitExceeded(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	quiz.MaxAttempts = 1
	previous := []*models.QuizAttempt{
		{ID: 1, QuizID: 1, StudentID: "student-1", Status: models.AttemptStatusGraded},
	}

	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.MockAttempt.On("GetActiveAttempt", mock.Anything, "student-1", uint(1)).Return(nil, nil)
	repo.MockAttempt.On("GetByStudentAndQuiz", mock.Anything, "student-1", uint(1)).Return(previous, nil)

	_, err := svc.Start(context.Background(), 1, "student-1")
	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
}

func TestStartAttempt_RetakeNotAllowed(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	quiz.Settings.AllowRetake = false
	previous := []*models.QuizAttempt{
		{ID: 1, QuizID: 1, StudentID: "student-1", Status: models.AttemptStatusGraded},
	}

	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.MockAttempt.On("GetActiveAttempt", mock.Anything, "student-1", uint(1)).Return(nil, nil)
	repo.MockAttempt.On("GetByStudentAndQuiz", mock.Anything, "student-1", uint(1)).Return(previous, nil)

	_, err := svc.Start(context.Background(), 1, "student-1")
	assert.ErrorIs(t, err, ErrRetakeNotAllowed)
}

func TestStartAttempt_RetakeDelayActive(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	quiz.Settings.RetakeDelay = 60
	previous := []*models.QuizAttempt{
		{
			ID: 1, QuizID: 1, StudentID: "student-1",
			Status:      models.AttemptStatusGraded,
			SubmittedAt: timePtr(time.Now().Add(-10 * time.Minute)),
		},
	}

	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.MockAttempt.On("GetActiveAttempt", mock.Anything, "student-1", uint(1)).Return(nil, nil)
	repo.MockAttempt.On("GetByStudentAndQuiz", mock.Anything, "student-1", uint(1)).Return(previous, nil)

	_, err := svc.Start(context.Background(), 1, "student-1")
	assert.ErrorIs(t, err, ErrRetakeDelayActive)
}

func TestStartAttempt_ResumesActive(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	active := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000E", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusInProgress,
		AttemptNumber: 1, StartedAt: time.Now().Add(-5 * time.Minute),
	}

	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.MockAttempt.On("GetActiveAttempt", mock.Anything, "student-1", uint(1)).Return(active, nil)
	repo.MockAnswer.On("CountByStatus", mock.Anything, uint(5)).Return(map[models.AnswerStatus]int{
		models.AnswerStatusUnanswered: 1,
		models.AnswerStatusValidated:  1,
	}, nil)

	resp, err := svc.Start(context.Background(), 1, "student-1")
	require.NoError(t, err)
	assert.Equal(t, active.PublicID, resp.PublicID)
	assert.Equal(t, 1, resp.AnsweredCount)
	repo.MockAttempt.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ===== SAVE ANSWER =====

func TestSaveAnswer_Valid(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000F", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusInProgress,
	}

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.MockAnswer.On("UpsertAnswer", mock.Anything, mock.AnythingOfType("*models.StudentAnswer")).Return(nil)

	req := &SaveAnswerRequest{
		QuestionID: 10,
		AnswerData: mustAnswer(t, models.MultipleChoiceAnswer{SelectedOptionID: "opt-b"}),
		TimeSpent:  45,
	}
	resp, err := svc.SaveAnswer(context.Background(), attempt.PublicID, req, "student-1")
	require.NoError(t, err)

	assert.Equal(t, models.AnswerStatusValidated, resp.Status)
	assert.True(t, resp.Validation.IsValid)
}

func TestSaveAnswer_IncompleteStaysAnswered(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000G", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusInProgress,
	}

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.MockAnswer.On("UpsertAnswer", mock.Anything, mock.AnythingOfType("*models.StudentAnswer")).Return(nil)

	// No option selected: the draft is kept but not validated.
	req := &SaveAnswerRequest{
		QuestionID: 10,
		AnswerData: mustAnswer(t, models.MultipleChoiceAnswer{}),
	}
	resp, err := svc.SaveAnswer(context.Background(), attempt.PublicID, req, "student-1")
	require.NoError(t, err)

	assert.Equal(t, models.AnswerStatusAnswered, resp.Status)
	assert.False(t, resp.Validation.IsValid)
}

func TestSaveAnswer_WrongStudent(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000H", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusInProgress,
	}

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)

	req := &SaveAnswerRequest{
		QuestionID: 10,
		AnswerData: mustAnswer(t, models.MultipleChoiceAnswer{SelectedOptionID: "opt-a"}),
	}
	_, err := svc.SaveAnswer(context.Background(), attempt.PublicID, req, "student-2")
	assert.ErrorIs(t, err, ErrAttemptAccessDenied)
}

func TestSaveAnswer_QuestionNotInQuiz(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000I", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusInProgress,
	}

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)

	req := &SaveAnswerRequest{
		QuestionID: 999,
		AnswerData: mustAnswer(t, models.MultipleChoiceAnswer{SelectedOptionID: "opt-a"}),
	}
	_, err := svc.SaveAnswer(context.Background(), attempt.PublicID, req, "student-1")
	assert.ErrorIs(t, err, ErrQuestionNotInQuiz)
}

// ===== SUBMIT =====

func TestSubmitAttempt(t *testing.T) {
	repo := NewMockRepository()
	publisher := testPublisher()
	grading := &MockGradingService{}
	svc := newAttemptService(repo, publisher, grading)

	quiz := attemptQuiz(t)
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000J", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusInProgress,
		StartedAt: time.Now().Add(-10 * time.Minute),
	}
	gradedCopy := *attempt
	gradedCopy.Status = models.AttemptStatusSubmitted
	gradedCopy.Score = 2
	gradedCopy.MaxScore = 7
	gradedCopy.PendingCount = 1

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.MockAttempt.On("Update", mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).Return(nil)
	repo.MockAnswer.On("CountByStatus", mock.Anything, uint(5)).Return(map[models.AnswerStatus]int{
		models.AnswerStatusValidated:  1,
		models.AnswerStatusUnanswered: 1,
	}, nil)
	grading.On("AutoGradeAttempt", mock.Anything, uint(5)).Return(nil)
	repo.MockAttempt.On("GetByID", mock.Anything, uint(5)).Return(&gradedCopy, nil)

	resp, err := svc.Submit(context.Background(), attempt.PublicID, "student-1")
	require.NoError(t, err)

	assert.Equal(t, models.AttemptStatusSubmitted, resp.Status)
	grading.AssertCalled(t, "AutoGradeAttempt", mock.Anything, uint(5))
	assert.Contains(t, publishedTypes(publisher), events.EventAttemptSubmitted)
}

func TestSubmitAttempt_AlreadySubmitted(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000K", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusSubmitted,
	}

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)

	_, err := svc.Submit(context.Background(), attempt.PublicID, "student-1")
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
}

func TestSubmitAttempt_TimedOut(t *testing.T) {
	repo := NewMockRepository()
	publisher := testPublisher()
	grading := &MockGradingService{}
	svc := newAttemptService(repo, publisher, grading)

	quiz := attemptQuiz(t)
	endTime := time.Now().Add(-2 * time.Minute)
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000L", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusInProgress,
		StartedAt: time.Now().Add(-40 * time.Minute),
		EndTime:   &endTime,
	}
	reloaded := *attempt
	reloaded.Status = models.AttemptStatusTimedOut

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.MockAttempt.On("Update", mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).
		Run(func(args mock.Arguments) {
			updated := args.Get(1).(*models.QuizAttempt)
			assert.Equal(t, models.AttemptStatusTimedOut, updated.Status)
			assert.Equal(t, endTime.Unix(), updated.SubmittedAt.Unix())
		}).Return(nil)
	repo.MockAnswer.On("CountByStatus", mock.Anything, uint(5)).Return(map[models.AnswerStatus]int{
		models.AnswerStatusValidated: 2,
	}, nil)
	grading.On("AutoGradeAttempt", mock.Anything, uint(5)).Return(nil)
	repo.MockAttempt.On("GetByID", mock.Anything, uint(5)).Return(&reloaded, nil)

	_, err := svc.Submit(context.Background(), attempt.PublicID, "student-1")
	require.NoError(t, err)

	assert.Contains(t, publishedTypes(publisher), events.EventAttemptTimedOut)
}

// ===== RESULTS =====

func TestGetResult_VisibilitySettings(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	quiz.Settings.ShowResults = false
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000M", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusGraded,
		Score: 5, MaxScore: 7, Percentage: 71.43, Passed: true,
	}
	full := *attempt
	full.Quiz = *quiz

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockAttempt.On("GetByIDWithAnswers", mock.Anything, uint(5)).Return(&full, nil)

	_, err := svc.GetResult(context.Background(), attempt.PublicID, "student-1")
	assert.ErrorIs(t, err, ErrResultsNotVisible)
}

func TestGetResult_OwnerSeesHiddenResults(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	quiz.Settings.ShowResults = false
	quiz.Settings.ShowScoreBreakdown = false
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000N", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusGraded,
		Score: 5, MaxScore: 7, Percentage: 71.43, Passed: true,
	}
	full := *attempt
	full.Quiz = *quiz
	full.Answers = []models.StudentAnswer{
		{
			ID: 100, AttemptID: 5, QuestionID: 10,
			Score: 2, MaxScore: 2, IsFullyCorrect: true,
			Question: multipleChoiceQuestion(t, 10, 2),
		},
	}

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockAttempt.On("GetByIDWithAnswers", mock.Anything, uint(5)).Return(&full, nil)

	// teacher-1 owns the quiz and bypasses learner visibility settings.
	result, err := svc.GetResult(context.Background(), attempt.PublicID, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, result.Score)
	require.Len(t, result.Answers, 1)
	assert.NotNil(t, result.Answers[0].Content)
}

func TestGetResult_NotSubmitted(t *testing.T) {
	repo := NewMockRepository()
	svc := newAttemptService(repo, testPublisher(), nil)

	quiz := attemptQuiz(t)
	attempt := &models.QuizAttempt{
		ID: 5, PublicID: "01J9TESTATTEMPT0000000000O", QuizID: 1,
		StudentID: "student-1", Status: models.AttemptStatusInProgress,
	}
	full := *attempt
	full.Quiz = *quiz

	repo.MockAttempt.On("GetByPublicID", mock.Anything, attempt.PublicID).Return(attempt, nil)
	repo.MockAttempt.On("GetByIDWithAnswers", mock.Anything, uint(5)).Return(&full, nil)

	_, err := svc.GetResult(context.Background(), attempt.PublicID, "student-1")
	assert.ErrorIs(t, err, ErrAttemptNotSubmitted)
}

// ===== TIMEOUT SWEEP =====

func TestProcessTimedOut(t *testing.T) {
	repo := NewMockRepository()
	publisher := testPublisher()
	grading := &MockGradingService{}
	svc := newAttemptService(repo, publisher, grading)

	autoQuiz := attemptQuiz(t)

	manualQuiz := attemptQuiz(t)
	manualQuiz.ID = 2
	manualQuiz.Settings.AutoSubmitOnTimeout = false

	endTime := time.Now().Add(-time.Hour)
	expired := []*models.QuizAttempt{
		{ID: 20, PublicID: "01J9TESTATTEMPT0000000000P", QuizID: 1, StudentID: "s1",
			Status: models.AttemptStatusInProgress, EndTime: &endTime},
		{ID: 21, PublicID: "01J9TESTATTEMPT0000000000Q", QuizID: 2, StudentID: "s2",
			Status: models.AttemptStatusInProgress, EndTime: &endTime},
	}

	repo.MockAttempt.On("GetTimedOutAttempts", mock.Anything, mock.AnythingOfType("time.Time")).Return(expired, nil)
	repo.MockQuiz.On("GetByID", mock.Anything, uint(1)).Return(autoQuiz, nil)
	repo.MockQuiz.On("GetByID", mock.Anything, uint(2)).Return(manualQuiz, nil)

	// Attempt 20 is auto-submitted and graded.
	repo.MockQuiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(autoQuiz, nil)
	repo.MockAttempt.On("Update", mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).Return(nil)
	repo.MockAnswer.On("CountByStatus", mock.Anything, uint(20)).Return(map[models.AnswerStatus]int{
		models.AnswerStatusValidated: 2,
	}, nil)
	grading.On("AutoGradeAttempt", mock.Anything, uint(20)).Return(nil)
	repo.MockAttempt.On("GetByID", mock.Anything, uint(20)).Return(expired[0], nil)

	// Attempt 21 is abandoned because its quiz disables auto-submit.
	repo.MockAttempt.On("UpdateStatus", mock.Anything, uint(21), models.AttemptStatusAbandoned).Return(nil)

	processed, err := svc.ProcessTimedOut(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	grading.AssertCalled(t, "AutoGradeAttempt", mock.Anything, uint(20))
	grading.AssertNotCalled(t, "AutoGradeAttempt", mock.Anything, uint(21))
	assert.Equal(t, models.AttemptStatusAbandoned, expired[1].Status)
}
