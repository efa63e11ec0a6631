package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/datatypes"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/events"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/scoring"
)

type gradingService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.EventPublisher
}

func NewGradingService(repo repositories.Repository, logger *slog.Logger, publisher events.EventPublisher) GradingService {
	return &gradingService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
	}
}

// ===== AUTOMATIC GRADING =====

// AutoGradeAttempt scores every answer of a submitted attempt and rolls the
// results up into the attempt summary. Essay and code answers are marked
// pending for manual grading; an unanswered one scores zero outright since
// there is nothing for a grader to read.
func (s *gradingService) AutoGradeAttempt(ctx context.Context, attemptID uint) error {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}

	switch attempt.Status {
	case models.AttemptStatusSubmitted, models.AttemptStatusTimedOut, models.AttemptStatusGraded:
	default:
		return ErrAttemptNotSubmitted
	}

	pointsByQuestion, err := s.effectivePoints(ctx, attempt.QuizID)
	if err != nil {
		return err
	}

	s.logger.Info("Auto-grading attempt", "attempt_id", attempt.PublicID, "answers", len(attempt.Answers))

	graded := make([]*models.StudentAnswer, 0, len(attempt.Answers))
	for i := range attempt.Answers {
		answer := &attempt.Answers[i]
		if answer.GradedBy != nil {
			// Manual grades survive a re-run.
			graded = append(graded, answer)
			continue
		}

		question := answer.Question
		if pts, ok := pointsByQuestion[answer.QuestionID]; ok {
			question.Points = pts
		}

		result, err := scoring.ScoreAnswer(&question, answer.AnswerData)
		if err != nil {
			if errors.Is(err, scoring.ErrMalformedQuestion) {
				// An authoring defect in one question must not sink the rest
				// of the attempt; the answer is parked for manual review.
				s.logger.Error("Skipping malformed question during grading",
					"attempt_id", attempt.PublicID, "question_id", answer.QuestionID, "error", err)
				zeroScore(answer, question.Points, true)
				graded = append(graded, answer)
				continue
			}
			return fmt.Errorf("grading attempt %s question %d: %w", attempt.PublicID, answer.QuestionID, err)
		}

		// Scoring is gated on validation: a draft that failed its submission
		// constraints keeps a zero regardless of what the matchers would
		// award. Re-checking here keeps grading re-runs idempotent.
		if v := scoring.ValidateAnswer(&question, answer.AnswerData); !v.IsValid {
			zeroScore(answer, question.Points, false)
			graded = append(graded, answer)
			continue
		}

		applyScoredResult(answer, result)
		graded = append(graded, answer)
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, answer := range graded {
			if err := txRepo.Answer().Update(ctx, answer); err != nil {
				return fmt.Errorf("failed to store answer grade: %w", err)
			}
		}
		return s.updateAttemptSummary(ctx, txRepo, attempt, graded)
	})
	if err != nil {
		return err
	}

	s.publishGradingEvents(ctx, attempt, graded)
	return nil
}

// ===== MANUAL GRADING =====

func (s *gradingService) GradeAnswer(ctx context.Context, answerID uint, req *GradeAnswerRequest, graderID string) (*AnswerResultResponse, error) {
	s.logger.Info("Manually grading answer", "answer_id", answerID, "grader_id", graderID)

	answer, err := s.repo.Answer().GetByID(ctx, answerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	question, err := s.repo.Question().GetByID(ctx, answer.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.Type.AutoGradable() {
		return nil, ErrGradingNotAllowed
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, answer.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	switch attempt.Status {
	case models.AttemptStatusSubmitted, models.AttemptStatusTimedOut, models.AttemptStatusGraded:
	default:
		return nil, ErrAttemptNotSubmitted
	}

	if err := s.checkGraderPermission(ctx, attempt.QuizID, graderID); err != nil {
		return nil, err
	}

	// Re-grading an already graded answer is allowed; grading an answer the
	// auto-grader never marked pending is not.
	if !answer.IsPending && answer.GradedBy == nil {
		return nil, ErrGradingNotPending
	}

	if req.Score < 0 || req.Score > answer.MaxScore {
		return nil, fmt.Errorf("%w: %.2f is outside [0, %.2f]", ErrGradingInvalidScore, req.Score, answer.MaxScore)
	}

	now := time.Now()
	answer.Score = roundScore(req.Score)
	answer.IsPending = false
	answer.IsFullyCorrect = answer.Score == answer.MaxScore && answer.MaxScore > 0
	answer.GradedBy = &graderID
	answer.GradedAt = &now
	answer.Feedback = req.Feedback
	answer.Status = models.AnswerStatusScored

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Answer().Update(ctx, answer); err != nil {
			return fmt.Errorf("failed to store manual grade: %w", err)
		}

		answers, err := txRepo.Answer().GetByAttempt(ctx, attempt.ID)
		if err != nil {
			return fmt.Errorf("failed to load attempt answers: %w", err)
		}
		return s.updateAttemptSummary(ctx, txRepo, attempt, answers)
	})
	if err != nil {
		return nil, err
	}

	event := events.NewAnswerGradedEvent(attempt.PublicID, attempt.QuizID, answer.QuestionID,
		attempt.StudentID, answer.Score, answer.MaxScore, answer.IsFullyCorrect, true)
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish answer graded event", "answer_id", answerID, "error", err)
	}
	if attempt.PendingCount == 0 {
		s.publishAttemptGraded(ctx, attempt, graderID)
	}

	s.logger.Info("Answer graded manually",
		"answer_id", answerID,
		"score", answer.Score,
		"pending_remaining", attempt.PendingCount)

	answer.Question = *question
	return buildAnswerResult(answer, true)
}

// ===== GRADING QUEUE =====

func (s *gradingService) GetPendingAnswers(ctx context.Context, quizID uint, userID string) ([]*PendingAnswerResponse, error) {
	if err := s.checkGraderPermission(ctx, quizID, userID); err != nil {
		return nil, err
	}

	answers, err := s.repo.Answer().GetPendingForQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending answers: %w", err)
	}

	pending := make([]*PendingAnswerResponse, 0, len(answers))
	for _, answer := range answers {
		pending = append(pending, &PendingAnswerResponse{
			AnswerID:     answer.ID,
			AttemptID:    answer.AttemptID,
			QuestionID:   answer.QuestionID,
			QuestionText: answer.Question.Text,
			Type:         answer.Question.Type,
			MaxScore:     answer.MaxScore,
			AnswerData:   answer.AnswerData,
			SubmittedAt:  answer.UpdatedAt,
		})
	}
	return pending, nil
}

func (s *gradingService) GetGradingStats(ctx context.Context, quizID uint, userID string) (*repositories.GradingStats, error) {
	if err := s.checkGraderPermission(ctx, quizID, userID); err != nil {
		return nil, err
	}

	stats, err := s.repo.Answer().GetGradingStats(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get grading stats: %w", err)
	}
	return stats, nil
}

// ===== INTERNALS =====

func (s *gradingService) effectivePoints(ctx context.Context, quizID uint) (map[uint]int, error) {
	quizQuestions, err := s.repo.Quiz().GetQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz questions: %w", err)
	}
	points := make(map[uint]int, len(quizQuestions))
	for _, qq := range quizQuestions {
		points[qq.QuestionID] = qq.EffectivePoints()
	}
	return points, nil
}

// zeroScore records a zero without invoking the matchers. Pending keeps the
// answer in the manual-review queue.
func zeroScore(answer *models.StudentAnswer, maxPoints int, pending bool) {
	answer.Score = 0
	answer.MaxScore = float64(maxPoints)
	answer.IsFullyCorrect = false
	answer.IsPending = pending
	if !pending {
		now := time.Now()
		answer.GradedAt = &now
	}
	answer.Status = models.AnswerStatusScored
}

func applyScoredResult(answer *models.StudentAnswer, result *scoring.ScoredResult) {
	answer.Score = result.PointsAwarded
	answer.MaxScore = float64(result.MaxPoints)
	answer.IsFullyCorrect = result.IsFullyCorrect
	answer.IsPending = result.Pending

	// An empty essay or code answer has nothing to hand a grader.
	if result.Pending && len(answer.AnswerData) == 0 {
		answer.IsPending = false
	}

	if verdict, err := json.Marshal(result.Verdict); err == nil {
		answer.VerdictData = datatypes.JSON(verdict)
	}

	if !answer.IsPending {
		now := time.Now()
		answer.GradedAt = &now
	}
	answer.Status = models.AnswerStatusScored
}

func (s *gradingService) updateAttemptSummary(ctx context.Context, txRepo repositories.Repository, attempt *models.QuizAttempt, answers []*models.StudentAnswer) error {
	var score, maxScore float64
	pending := 0
	for _, answer := range answers {
		maxScore += answer.MaxScore
		if answer.IsPending {
			pending++
			continue
		}
		score += answer.Score
	}

	attempt.Score = roundScore(score)
	attempt.MaxScore = maxScore
	attempt.PendingCount = pending
	attempt.PartiallyDone = pending > 0
	if maxScore > 0 {
		attempt.Percentage = roundScore(score / maxScore * 100)
	} else {
		attempt.Percentage = 0
	}
	// A pass is only final once every answer has a grade.
	attempt.Passed = pending == 0 && attempt.Percentage >= float64(attempt.Quiz.PassingScore)
	if attempt.Quiz.ID == 0 {
		quiz, err := txRepo.Quiz().GetByID(ctx, attempt.QuizID)
		if err != nil {
			return fmt.Errorf("failed to get quiz for summary: %w", err)
		}
		attempt.Passed = pending == 0 && attempt.Percentage >= float64(quiz.PassingScore)
	}

	if pending == 0 {
		now := time.Now()
		attempt.Status = models.AttemptStatusGraded
		attempt.GradedAt = &now
	}

	if err := txRepo.Attempt().Update(ctx, attempt); err != nil {
		return fmt.Errorf("failed to update attempt summary: %w", err)
	}
	return nil
}

func (s *gradingService) publishGradingEvents(ctx context.Context, attempt *models.QuizAttempt, answers []*models.StudentAnswer) {
	for _, answer := range answers {
		if answer.IsPending || answer.GradedBy != nil {
			continue
		}
		event := events.NewAnswerGradedEvent(attempt.PublicID, attempt.QuizID, answer.QuestionID,
			attempt.StudentID, answer.Score, answer.MaxScore, answer.IsFullyCorrect, false)
		if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish answer graded event",
				"attempt_id", attempt.PublicID, "question_id", answer.QuestionID, "error", err)
		}
	}

	if attempt.PendingCount > 0 {
		event := events.NewManualGradingRequiredEvent(attempt.PublicID, attempt.QuizID,
			attempt.Quiz.Title, attempt.StudentID, attempt.PendingCount, attempt.Quiz.CreatedBy)
		if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish manual grading event",
				"attempt_id", attempt.PublicID, "error", err)
		}
		return
	}

	s.publishAttemptGraded(ctx, attempt, "")
}

func (s *gradingService) publishAttemptGraded(ctx context.Context, attempt *models.QuizAttempt, gradedBy string) {
	gradedAt := time.Now()
	if attempt.GradedAt != nil {
		gradedAt = *attempt.GradedAt
	}
	event := events.NewAttemptGradedEvent(attempt.PublicID, attempt.QuizID, attempt.Quiz.Title,
		attempt.StudentID, gradedAt, attempt.Score, attempt.MaxScore, attempt.Percentage,
		attempt.Passed, attempt.PendingCount, gradedBy)
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt graded event",
			"attempt_id", attempt.PublicID, "error", err)
	}
}

func (s *gradingService) checkGraderPermission(ctx context.Context, quizID uint, userID string) error {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}
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
		return NewPermissionError(userID, quizID, "quiz", "grade", "not owner or insufficient permissions")
	}
	return nil
}

// ===== SHARED RESULT BUILDERS =====

func buildAnswerResult(answer *models.StudentAnswer, revealAnswers bool) (*AnswerResultResponse, error) {
	result := &AnswerResultResponse{
		QuestionID:     answer.QuestionID,
		QuestionText:   answer.Question.Text,
		Type:           answer.Question.Type,
		Score:          answer.Score,
		MaxScore:       answer.MaxScore,
		IsFullyCorrect: answer.IsFullyCorrect,
		IsPending:      answer.IsPending,
		Feedback:       answer.Feedback,
		AnswerData:     answer.AnswerData,
	}

	if len(answer.VerdictData) > 0 {
		var verdict scoring.Verdict
		if err := json.Unmarshal(answer.VerdictData, &verdict); err != nil {
			return nil, fmt.Errorf("decode verdict for answer %d: %w", answer.ID, err)
		}
		result.Verdict = &verdict
	}

	if revealAnswers {
		result.Content = answer.Question.Content
		result.Explanation = answer.Question.Explanation
	}

	return result, nil
}

func roundScore(x float64) float64 {
	return math.Round(x*100) / 100
}
