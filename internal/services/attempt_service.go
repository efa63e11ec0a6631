package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/events"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/scoring"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/utils"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	grading   GradingService
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, grading GradingService) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		grading:   grading,
	}
}

// ===== ATTEMPT LIFECYCLE =====

func (s *attemptService) Start(ctx context.Context, quizID uint, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting quiz attempt", "quiz_id", quizID, "student_id", studentID)

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.Status != models.QuizStatusActive {
		return nil, ErrQuizNotActive
	}
	if quiz.DueDate != nil && time.Now().After(*quiz.DueDate) {
		return nil, ErrQuizExpired
	}
	if len(quiz.Questions) == 0 {
		return nil, ErrQuizHasNoQuestions
	}

	// An unexpired in-progress attempt is resumed, never duplicated.
	active, err := s.repo.Attempt().GetActiveAttempt(ctx, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}
	if active != nil {
		if active.EndTime == nil || time.Now().Before(*active.EndTime) {
			s.logger.Info("Resuming active attempt", "attempt_id", active.PublicID)
			return s.buildAttemptResponse(ctx, active, quiz)
		}
		if err := s.finalizeExpired(ctx, active, &quiz.Settings); err != nil {
			return nil, err
		}
	}

	if err := s.checkRetakePolicy(ctx, quiz, studentID); err != nil {
		return nil, err
	}

	count, err := s.repo.Attempt().GetAttemptCount(ctx, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	now := time.Now()
	attempt := &models.QuizAttempt{
		PublicID:      utils.NewULID(),
		QuizID:        quizID,
		StudentID:     studentID,
		Status:        models.AttemptStatusInProgress,
		AttemptNumber: count + 1,
		StartedAt:     now,
		EndTime:       attemptDeadline(now, quiz),
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Attempt().Create(ctx, attempt); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}
		// One answer row per question, so saving and grading are upserts
		// against a known set.
		for i := range quiz.Questions {
			answer := &models.StudentAnswer{
				AttemptID:  attempt.ID,
				QuestionID: quiz.Questions[i].QuestionID,
				Status:     models.AnswerStatusUnanswered,
			}
			if err := txRepo.Answer().Create(ctx, answer); err != nil {
				return fmt.Errorf("failed to create answer row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.NewAttemptStartedEvent(attempt.PublicID, quizID, quiz.Title, studentID,
		attempt.AttemptNumber, attempt.StartedAt, attempt.EndTime)
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt started event", "attempt_id", attempt.PublicID, "error", err)
	}

	s.logger.Info("Attempt started", "attempt_id", attempt.PublicID, "attempt_number", attempt.AttemptNumber)
	return s.buildAttemptResponse(ctx, attempt, quiz)
}

func (s *attemptService) GetByPublicID(ctx context.Context, publicID string, userID string) (*AttemptResponse, error) {
	attempt, quiz, err := s.getAttemptWithQuiz(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if err := s.checkAttemptAccess(ctx, attempt, quiz, userID); err != nil {
		return nil, err
	}

	return s.buildAttemptResponse(ctx, attempt, quiz)
}

func (s *attemptService) SaveAnswer(ctx context.Context, publicID string, req *SaveAnswerRequest, studentID string) (*SaveAnswerResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	attempt, quiz, err := s.getAttemptWithQuiz(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, ErrAttemptAccessDenied
	}
	if attempt.Status != models.AttemptStatusInProgress {
		return nil, ErrAttemptNotActive
	}
	if attempt.EndTime != nil && time.Now().After(*attempt.EndTime) {
		if err := s.finalizeExpired(ctx, attempt, &quiz.Settings); err != nil {
			s.logger.Error("Failed to finalize expired attempt", "attempt_id", publicID, "error", err)
		}
		return nil, ErrAttemptTimeExpired
	}

	question := findQuizQuestion(quiz, req.QuestionID)
	if question == nil {
		return nil, ErrQuestionNotInQuiz
	}

	validation := scoring.ValidateAnswer(&question.Question, req.AnswerData)

	// A failed validation still stores the draft; the answer just stays at
	// answered instead of validated until the learner fixes it. Only a
	// validated answer is eligible for scoring at submit.
	status := models.AnswerStatusAnswered
	if validation.IsValid {
		status = models.AnswerStatusValidated
	}

	answer := &models.StudentAnswer{
		AttemptID:  attempt.ID,
		QuestionID: req.QuestionID,
		Status:     status,
		AnswerData: req.AnswerData,
		TimeSpent:  req.TimeSpent,
	}
	if err := s.repo.Answer().UpsertAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	return &SaveAnswerResponse{
		QuestionID: req.QuestionID,
		Status:     status,
		Validation: validation,
	}, nil
}

func (s *attemptService) Submit(ctx context.Context, publicID string, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Submitting attempt", "attempt_id", publicID, "student_id", studentID)

	attempt, quiz, err := s.getAttemptWithQuiz(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, ErrAttemptAccessDenied
	}
	switch attempt.Status {
	case models.AttemptStatusInProgress:
	case models.AttemptStatusSubmitted, models.AttemptStatusGraded, models.AttemptStatusTimedOut:
		return nil, ErrAttemptAlreadySubmitted
	default:
		return nil, ErrAttemptNotActive
	}

	timedOut := attempt.EndTime != nil && time.Now().After(*attempt.EndTime)
	if err := s.finalizeAttempt(ctx, attempt, quiz, timedOut); err != nil {
		return nil, err
	}

	return s.buildAttemptResponse(ctx, attempt, quiz)
}

// ProcessTimedOut sweeps expired in-progress attempts. Quizzes with
// auto-submit enabled get submitted and graded with whatever was saved;
// the rest are marked abandoned.
func (s *attemptService) ProcessTimedOut(ctx context.Context) (int, error) {
	attempts, err := s.repo.Attempt().GetTimedOutAttempts(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to get timed out attempts: %w", err)
	}

	processed := 0
	for _, attempt := range attempts {
		quiz, err := s.repo.Quiz().GetByID(ctx, attempt.QuizID)
		if err != nil {
			s.logger.Error("Failed to load quiz for timed out attempt",
				"attempt_id", attempt.PublicID, "quiz_id", attempt.QuizID, "error", err)
			continue
		}
		if err := s.finalizeExpiredWith(ctx, attempt, quiz); err != nil {
			s.logger.Error("Failed to process timed out attempt",
				"attempt_id", attempt.PublicID, "error", err)
			continue
		}
		processed++
	}

	if processed > 0 {
		s.logger.Info("Processed timed out attempts", "count", processed)
	}
	return processed, nil
}

// ===== RESULTS =====

func (s *attemptService) GetResult(ctx context.Context, publicID string, userID string) (*AttemptResultResponse, error) {
	attempt, err := s.repo.Attempt().GetByPublicID(ctx, publicID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	full, err := s.repo.Attempt().GetByIDWithAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt answers: %w", err)
	}

	quiz := &full.Quiz
	isManager := userID != full.StudentID
	if isManager {
		if err := s.checkQuizManager(ctx, quiz, userID); err != nil {
			return nil, err
		}
	}

	switch full.Status {
	case models.AttemptStatusSubmitted, models.AttemptStatusGraded, models.AttemptStatusTimedOut:
	default:
		return nil, ErrAttemptNotSubmitted
	}

	// Visibility settings bind the learner only; the quiz owner always
	// sees the full result.
	if !isManager && !quiz.Settings.ShowResults {
		return nil, ErrResultsNotVisible
	}

	result := &AttemptResultResponse{
		PublicID:        full.PublicID,
		QuizID:          full.QuizID,
		QuizTitle:       quiz.Title,
		Status:          full.Status,
		AttemptNumber:   full.AttemptNumber,
		SubmittedAt:     full.SubmittedAt,
		GradedAt:        full.GradedAt,
		Score:           full.Score,
		MaxScore:        full.MaxScore,
		Percentage:      full.Percentage,
		Passed:          full.Passed,
		PendingCount:    full.PendingCount,
		PartiallyGraded: full.PartiallyDone,
	}

	if isManager || quiz.Settings.ShowScoreBreakdown {
		revealAnswers := isManager || quiz.Settings.ShowCorrectAnswers
		result.Answers = make([]*AnswerResultResponse, 0, len(full.Answers))
		for i := range full.Answers {
			ar, err := buildAnswerResult(&full.Answers[i], revealAnswers)
			if err != nil {
				return nil, err
			}
			result.Answers = append(result.Answers, ar)
		}
	}

	return result, nil
}

func (s *attemptService) ListForStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) (*AttemptListResponse, error) {
	filters.StudentID = &studentID

	attempts, total, err := s.repo.Attempt().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	response := &AttemptListResponse{
		Attempts: make([]*AttemptResponse, 0, len(attempts)),
		Total:    total,
		Page:     filters.Offset / max(filters.Limit, 1),
		Size:     filters.Limit,
	}
	for _, attempt := range attempts {
		ar, err := s.buildAttemptResponse(ctx, attempt, &attempt.Quiz)
		if err != nil {
			return nil, err
		}
		response.Attempts = append(response.Attempts, ar)
	}
	return response, nil
}

// ===== SUBMISSION INTERNALS =====

func (s *attemptService) finalizeAttempt(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz, timedOut bool) error {
	now := time.Now()
	submittedAt := now
	if timedOut && attempt.EndTime != nil {
		// A timed out attempt counts as submitted at its deadline, not at
		// whatever later moment the sweep or the learner triggered it.
		submittedAt = *attempt.EndTime
	}

	if timedOut {
		attempt.Status = models.AttemptStatusTimedOut
	} else {
		attempt.Status = models.AttemptStatusSubmitted
	}
	attempt.SubmittedAt = &submittedAt

	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}

	counts, err := s.repo.Answer().CountByStatus(ctx, attempt.ID)
	if err != nil {
		return fmt.Errorf("failed to count answers: %w", err)
	}
	answered := counts[models.AnswerStatusAnswered] + counts[models.AnswerStatusValidated] + counts[models.AnswerStatusScored]
	questionCount := 0
	for _, c := range counts {
		questionCount += c
	}

	gradingRequired := quizNeedsManualGrading(quiz)
	event := events.NewAttemptSubmittedEvent(attempt.PublicID, attempt.QuizID, quiz.Title,
		attempt.StudentID, submittedAt, answered, questionCount, gradingRequired, timedOut)
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt submitted event", "attempt_id", attempt.PublicID, "error", err)
	}

	if err := s.grading.AutoGradeAttempt(ctx, attempt.ID); err != nil {
		return fmt.Errorf("failed to grade attempt: %w", err)
	}

	// Refresh post-grading summary fields for the caller.
	updated, err := s.repo.Attempt().GetByID(ctx, attempt.ID)
	if err != nil {
		return fmt.Errorf("failed to reload attempt: %w", err)
	}
	*attempt = *updated

	s.logger.Info("Attempt submitted",
		"attempt_id", attempt.PublicID,
		"timed_out", timedOut,
		"score", attempt.Score,
		"pending_count", attempt.PendingCount)
	return nil
}

func (s *attemptService) finalizeExpired(ctx context.Context, attempt *models.QuizAttempt, settings *models.QuizSettings) error {
	if settings.AutoSubmitOnTimeout {
		quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, attempt.QuizID)
		if err != nil {
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		return s.finalizeAttempt(ctx, attempt, quiz, true)
	}
	if err := s.repo.Attempt().UpdateStatus(ctx, attempt.ID, models.AttemptStatusAbandoned); err != nil {
		return fmt.Errorf("failed to abandon attempt: %w", err)
	}
	attempt.Status = models.AttemptStatusAbandoned
	return nil
}

func (s *attemptService) finalizeExpiredWith(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz) error {
	return s.finalizeExpired(ctx, attempt, &quiz.Settings)
}

// ===== HELPERS =====

func (s *attemptService) getAttemptWithQuiz(ctx context.Context, publicID string) (*models.QuizAttempt, *models.Quiz, error) {
	attempt, err := s.repo.Attempt().GetByPublicID(ctx, publicID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return attempt, quiz, nil
}

func (s *attemptService) checkAttemptAccess(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz, userID string) error {
	if attempt.StudentID == userID {
		return nil
	}
	return s.checkQuizManager(ctx, quiz, userID)
}

func (s *attemptService) checkQuizManager(ctx context.Context, quiz *models.Quiz, userID string) error {
	if quiz.CreatedBy == userID {
		return nil
	}
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleAdmin {
		return ErrAttemptAccessDenied
	}
	return nil
}

func (s *attemptService) checkRetakePolicy(ctx context.Context, quiz *models.Quiz, studentID string) error {
	previous, err := s.repo.Attempt().GetByStudentAndQuiz(ctx, studentID, quiz.ID)
	if err != nil {
		return fmt.Errorf("failed to get previous attempts: %w", err)
	}
	if len(previous) == 0 {
		return nil
	}

	if len(previous) >= quiz.MaxAttempts {
		return ErrAttemptLimitExceeded
	}
	if !quiz.Settings.AllowRetake {
		return ErrRetakeNotAllowed
	}
	if quiz.Settings.RetakeDelay > 0 {
		var lastFinished *time.Time
		for _, a := range previous {
			if a.SubmittedAt != nil && (lastFinished == nil || a.SubmittedAt.After(*lastFinished)) {
				lastFinished = a.SubmittedAt
			}
		}
		if lastFinished != nil {
			retakeAt := lastFinished.Add(time.Duration(quiz.Settings.RetakeDelay) * time.Minute)
			if time.Now().Before(retakeAt) {
				return ErrRetakeDelayActive
			}
		}
	}
	return nil
}

func (s *attemptService) buildAttemptResponse(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz) (*AttemptResponse, error) {
	counts, err := s.repo.Answer().CountByStatus(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}

	questionCount := 0
	for _, c := range counts {
		questionCount += c
	}
	answered := counts[models.AnswerStatusAnswered] + counts[models.AnswerStatusValidated] + counts[models.AnswerStatusScored]

	return &AttemptResponse{
		PublicID:      attempt.PublicID,
		QuizID:        attempt.QuizID,
		QuizTitle:     quiz.Title,
		StudentID:     attempt.StudentID,
		Status:        attempt.Status,
		AttemptNumber: attempt.AttemptNumber,
		StartedAt:     attempt.StartedAt,
		EndTime:       attempt.EndTime,
		SubmittedAt:   attempt.SubmittedAt,
		QuestionCount: questionCount,
		AnsweredCount: answered,
	}, nil
}

// attemptDeadline derives the attempt cutoff from the quiz time limit and
// due date, whichever comes first.
func attemptDeadline(start time.Time, quiz *models.Quiz) *time.Time {
	var deadline *time.Time
	if quiz.TimeLimit != nil {
		t := start.Add(time.Duration(*quiz.TimeLimit) * time.Minute)
		deadline = &t
	}
	if quiz.DueDate != nil && (deadline == nil || quiz.DueDate.Before(*deadline)) {
		deadline = quiz.DueDate
	}
	return deadline
}

func findQuizQuestion(quiz *models.Quiz, questionID uint) *models.QuizQuestion {
	for i := range quiz.Questions {
		if quiz.Questions[i].QuestionID == questionID {
			return &quiz.Questions[i]
		}
	}
	return nil
}

func quizNeedsManualGrading(quiz *models.Quiz) bool {
	for i := range quiz.Questions {
		if !quiz.Questions[i].Question.Type.AutoGradable() {
			return true
		}
	}
	return false
}
