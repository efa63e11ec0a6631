package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/cache"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/events"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/validator"
)

const quizCacheTTL = 5 * time.Minute

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     cache.CacheService
	publisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, cacheService cache.CacheService, publisher events.EventPublisher) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: v,
		cache:     cacheService,
		publisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*QuizResponse, error) {
	s.logger.Info("Creating quiz", "creator_id", creatorID, "title", req.Title)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	canCreate, err := s.hasTeacherRole(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canCreate {
		return nil, NewPermissionError(creatorID, 0, "quiz", "create", "insufficient role permissions")
	}

	if req.DueDate != nil && req.DueDate.Before(time.Now()) {
		return nil, NewBusinessRuleError("due_date_in_past", "due date must be in the future", nil)
	}

	quiz := &models.Quiz{
		Title:        req.Title,
		Description:  req.Description,
		Status:       models.QuizStatusDraft,
		PassingScore: 70,
		MaxAttempts:  1,
		TimeLimit:    req.TimeLimit,
		DueDate:      req.DueDate,
		CreatedBy:    creatorID,
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}
	quiz.Settings = s.buildSettings(0, req.Settings)

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Quiz().Create(ctx, quiz)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created successfully", "quiz_id", quiz.ID)

	return s.GetByID(ctx, quiz.ID, creatorID)
}

func (s *quizService) GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}

	canAccess, err := s.canAccessQuiz(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(userID, id, "quiz", "read", "not owner and quiz not active")
	}

	return buildQuizResponse(quiz, nil), nil
}

func (s *quizService) GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz with questions: %w", err)
	}

	canAccess, err := s.canAccessQuiz(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(userID, id, "quiz", "read", "not owner and quiz not active")
	}

	// Learners never see correct-answer data in quiz content.
	isOwner, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}

	questions := make([]*QuizQuestionResponse, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		qq := &quiz.Questions[i]
		qr, err := buildQuizQuestionResponse(qq, !isOwner)
		if err != nil {
			return nil, fmt.Errorf("failed to build question response: %w", err)
		}
		questions = append(questions, qr)
	}

	return buildQuizResponse(quiz, questions), nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error) {
	s.logger.Info("Updating quiz", "quiz_id", id, "user_id", userID)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}

	canEdit, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(userID, id, "quiz", "update", "not owner or insufficient permissions")
	}
	if quiz.Status != models.QuizStatusDraft {
		return nil, ErrQuizNotEditable
	}

	if req.DueDate != nil && req.DueDate.Before(time.Now()) {
		return nil, NewBusinessRuleError("due_date_in_past", "due date must be in the future", nil)
	}

	s.applyQuizUpdates(quiz, req)

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Quiz().Update(ctx, quiz)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.invalidateQuizCache(ctx, id)
	s.logger.Info("Quiz updated successfully", "quiz_id", id)

	return s.GetByID(ctx, id, userID)
}

func (s *quizService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting quiz", "quiz_id", id, "user_id", userID)

	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return err
	}

	canDelete, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return err
	}
	if !canDelete {
		return NewPermissionError(userID, id, "quiz", "delete", "not owner or insufficient permissions")
	}

	stats, err := s.repo.Attempt().GetQuizAttemptStats(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check quiz attempts: %w", err)
	}
	if stats.TotalAttempts > 0 {
		return ErrQuizNotDeletable
	}

	if err := s.repo.Quiz().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.invalidateQuizCache(ctx, id)
	s.logger.Info("Quiz deleted successfully", "quiz_id", id)
	return nil
}

// ===== LIST OPERATIONS =====

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters, userID string) (*QuizListResponse, error) {
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleAdmin:
		// Admins see everything.
	case models.RoleTeacher:
		filters.CreatedBy = &userID
	default:
		// Students only browse active quizzes.
		active := models.QuizStatusActive
		filters.Status = &active
		filters.CreatedBy = nil
	}

	quizzes, total, err := s.repo.Quiz().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	response := &QuizListResponse{
		Quizzes: make([]*QuizResponse, len(quizzes)),
		Total:   total,
		Page:    filters.Offset / max(filters.Limit, 1),
		Size:    filters.Limit,
	}
	for i, quiz := range quizzes {
		response.Quizzes[i] = buildQuizResponse(quiz, nil)
	}

	return response, nil
}

// ===== STATUS MANAGEMENT =====

func (s *quizService) Publish(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Publishing quiz", "quiz_id", id, "user_id", userID)

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}

	canEdit, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return NewPermissionError(userID, id, "quiz", "publish", "not owner or insufficient permissions")
	}

	if quiz.Status != models.QuizStatusDraft {
		return ErrQuizInvalidStatus
	}
	if len(quiz.Questions) == 0 {
		return ErrQuizHasNoQuestions
	}

	// Every question must have well-formed content before learners see it.
	for i := range quiz.Questions {
		q := &quiz.Questions[i].Question
		if err := s.validator.Question().ValidateContent(q.Type, q.Content); err != nil {
			return NewBusinessRuleError("invalid_question_content",
				fmt.Sprintf("question %d has invalid content: %v", q.ID, err),
				map[string]interface{}{"question_id": q.ID})
		}
	}

	if err := s.repo.Quiz().UpdateStatus(ctx, id, models.QuizStatusActive); err != nil {
		return fmt.Errorf("failed to publish quiz: %w", err)
	}
	s.invalidateQuizCache(ctx, id)

	event := events.NewQuizPublishedEvent(quiz.ID, quiz.Title, quiz.DueDate, quiz.TimeLimit,
		quiz.QuestionCount, quiz.TotalPoints, quiz.CreatedBy)
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz published event", "quiz_id", id, "error", err)
	}

	s.logger.Info("Quiz published successfully", "quiz_id", id)
	return nil
}

func (s *quizService) Archive(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Archiving quiz", "quiz_id", id, "user_id", userID)

	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return err
	}

	canEdit, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return NewPermissionError(userID, id, "quiz", "archive", "not owner or insufficient permissions")
	}

	if quiz.Status != models.QuizStatusActive {
		return ErrQuizInvalidStatus
	}

	if err := s.repo.Quiz().UpdateStatus(ctx, id, models.QuizStatusArchived); err != nil {
		return fmt.Errorf("failed to archive quiz: %w", err)
	}
	s.invalidateQuizCache(ctx, id)

	event := events.NewQuizArchivedEvent(quiz.ID, quiz.Title, userID)
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz archived event", "quiz_id", id, "error", err)
	}

	s.logger.Info("Quiz archived successfully", "quiz_id", id)
	return nil
}

// ===== QUESTION MANAGEMENT =====

func (s *quizService) AddQuestion(ctx context.Context, quizID, questionID uint, order int, points *int, userID string) error {
	s.logger.Info("Adding question to quiz",
		"quiz_id", quizID,
		"question_id", questionID,
		"order", order,
		"user_id", userID)

	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireEditable(ctx, quiz, userID, "add_question"); err != nil {
		return err
	}

	if points != nil && (*points < 1 || *points > 100) {
		return NewValidationError("points", "points override must be between 1 and 100", *points)
	}

	if _, err := s.repo.Question().GetByID(ctx, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	qq := &models.QuizQuestion{
		QuizID:     quizID,
		QuestionID: questionID,
		Order:      order,
		Points:     points,
	}
	if err := s.repo.Quiz().AddQuestion(ctx, qq); err != nil {
		return fmt.Errorf("failed to add question to quiz: %w", err)
	}

	s.invalidateQuizCache(ctx, quizID)
	return nil
}

func (s *quizService) RemoveQuestion(ctx context.Context, quizID, questionID uint, userID string) error {
	s.logger.Info("Removing question from quiz",
		"quiz_id", quizID,
		"question_id", questionID,
		"user_id", userID)

	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireEditable(ctx, quiz, userID, "remove_question"); err != nil {
		return err
	}

	if err := s.repo.Quiz().RemoveQuestion(ctx, quizID, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotInQuiz
		}
		return fmt.Errorf("failed to remove question from quiz: %w", err)
	}

	s.invalidateQuizCache(ctx, quizID)
	return nil
}

func (s *quizService) ReorderQuestions(ctx context.Context, quizID uint, orders []repositories.QuestionOrder, userID string) error {
	s.logger.Info("Reordering quiz questions",
		"quiz_id", quizID,
		"question_count", len(orders),
		"user_id", userID)

	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireEditable(ctx, quiz, userID, "reorder_questions"); err != nil {
		return err
	}

	if err := s.repo.Quiz().ReorderQuestions(ctx, quizID, orders); err != nil {
		return fmt.Errorf("failed to reorder questions: %w", err)
	}

	s.invalidateQuizCache(ctx, quizID)
	return nil
}

// ===== STATISTICS =====

func (s *quizService) GetStats(ctx context.Context, id uint, userID string) (*repositories.QuizStats, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}

	canAccess, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(userID, id, "quiz", "view_stats", "not owner or insufficient permissions")
	}

	stats, err := s.repo.Quiz().GetStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz stats: %w", err)
	}
	return stats, nil
}

// ===== HELPERS =====

func (s *quizService) getQuiz(ctx context.Context, id uint) (*models.Quiz, error) {
	cacheKey := fmt.Sprintf("quiz:%d", id)

	var cached models.Quiz
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Quiz cache lookup failed", "quiz_id", id, "error", err)
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey, quiz, quizCacheTTL); err != nil {
		s.logger.Warn("Quiz cache store failed", "quiz_id", id, "error", err)
	}
	return quiz, nil
}

func (s *quizService) invalidateQuizCache(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, fmt.Sprintf("quiz:%d", id)); err != nil {
		s.logger.Warn("Quiz cache invalidation failed", "quiz_id", id, "error", err)
	}
}

func (s *quizService) requireEditable(ctx context.Context, quiz *models.Quiz, userID, action string) error {
	canEdit, err := s.canManageQuiz(ctx, quiz, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return NewPermissionError(userID, quiz.ID, "quiz", action, "not owner or insufficient permissions")
	}
	if quiz.Status != models.QuizStatusDraft {
		return ErrQuizNotEditable
	}
	return nil
}

func (s *quizService) canManageQuiz(ctx context.Context, quiz *models.Quiz, userID string) (bool, error) {
	if quiz.CreatedBy == userID {
		return true, nil
	}
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

func (s *quizService) canAccessQuiz(ctx context.Context, quiz *models.Quiz, userID string) (bool, error) {
	if quiz.Status == models.QuizStatusActive {
		return true, nil
	}
	return s.canManageQuiz(ctx, quiz, userID)
}

func (s *quizService) hasTeacherRole(ctx context.Context, userID string) (bool, error) {
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleTeacher || role == models.RoleAdmin, nil
}

func (s *quizService) getUserRole(ctx context.Context, userID string) (models.UserRole, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	return user.Role, nil
}

func (s *quizService) buildSettings(quizID uint, req *QuizSettingsRequest) models.QuizSettings {
	settings := models.QuizSettings{
		QuizID:              quizID,
		ShowResults:         true,
		ShowCorrectAnswers:  true,
		ShowScoreBreakdown:  true,
		AutoSubmitOnTimeout: true,
		AutoSaveInterval:    30,
	}
	if req == nil {
		return settings
	}
	applySettingsUpdates(&settings, req)
	return settings
}

func (s *quizService) applyQuizUpdates(quiz *models.Quiz, req *UpdateQuizRequest) {
	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = req.TimeLimit
	}
	if req.DueDate != nil {
		quiz.DueDate = req.DueDate
	}
	if req.Settings != nil {
		applySettingsUpdates(&quiz.Settings, req.Settings)
	}
}

func applySettingsUpdates(settings *models.QuizSettings, req *QuizSettingsRequest) {
	if req.ShuffleQuestions != nil {
		settings.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.ShuffleOptions != nil {
		settings.ShuffleOptions = *req.ShuffleOptions
	}
	if req.ShowResults != nil {
		settings.ShowResults = *req.ShowResults
	}
	if req.ShowCorrectAnswers != nil {
		settings.ShowCorrectAnswers = *req.ShowCorrectAnswers
	}
	if req.ShowScoreBreakdown != nil {
		settings.ShowScoreBreakdown = *req.ShowScoreBreakdown
	}
	if req.AllowRetake != nil {
		settings.AllowRetake = *req.AllowRetake
	}
	if req.RetakeDelay != nil {
		settings.RetakeDelay = *req.RetakeDelay
	}
	if req.AutoSubmitOnTimeout != nil {
		settings.AutoSubmitOnTimeout = *req.AutoSubmitOnTimeout
	}
	if req.AutoSaveInterval != nil {
		settings.AutoSaveInterval = *req.AutoSaveInterval
	}
}
