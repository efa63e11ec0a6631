package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error) {
	s.logger.Info("Creating question", "creator_id", creatorID, "type", req.Type)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	canCreate, err := s.hasTeacherRole(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canCreate {
		return nil, NewPermissionError(creatorID, 0, "question", "create", "insufficient role permissions")
	}

	question := &models.Question{
		Type:        req.Type,
		Text:        req.Text,
		Points:      req.Points,
		Difficulty:  req.Difficulty,
		Required:    req.Required,
		Content:     req.Content,
		Explanation: req.Explanation,
		CreatedBy:   creatorID,
	}
	if question.Difficulty == "" {
		question.Difficulty = models.DifficultyMedium
	}

	if err := s.validator.Question().ValidateQuestion(question); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuestionInvalidContent, err)
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created successfully", "question_id", question.ID)
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint, userID string) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	canAccess, err := s.canManageQuestion(ctx, question, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(userID, id, "question", "read", "not owner or insufficient permissions")
	}

	return question, nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.Question, error) {
	s.logger.Info("Updating question", "question_id", id, "user_id", userID)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	canEdit, err := s.canManageQuestion(ctx, question, userID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(userID, id, "question", "update", "not owner or insufficient permissions")
	}

	// Editing a question already assigned to quizzes would silently change
	// published answer keys, so the content is frozen once in use.
	if req.Content != nil {
		inUse, err := s.repo.Question().IsUsedInQuizzes(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check question usage: %w", err)
		}
		if inUse {
			return nil, NewBusinessRuleError("question_in_use",
				"content of a question assigned to quizzes cannot be changed", nil)
		}
	}

	s.applyQuestionUpdates(question, req)

	if err := s.validator.Question().ValidateQuestion(question); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuestionInvalidContent, err)
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated successfully", "question_id", id)
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting question", "question_id", id, "user_id", userID)

	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	canDelete, err := s.canManageQuestion(ctx, question, userID)
	if err != nil {
		return err
	}
	if !canDelete {
		return NewPermissionError(userID, id, "question", "delete", "not owner or insufficient permissions")
	}

	inUse, err := s.repo.Question().IsUsedInQuizzes(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check question usage: %w", err)
	}
	if inUse {
		return ErrQuestionNotDeletable
	}

	if err := s.repo.Question().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted successfully", "question_id", id)
	return nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters, userID string) (*QuestionListResponse, error) {
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin {
		filters.CreatedBy = &userID
	}

	questions, total, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	return &QuestionListResponse{
		Questions: questions,
		Total:     total,
		Page:      filters.Offset / max(filters.Limit, 1),
		Size:      filters.Limit,
	}, nil
}

// ===== HELPERS =====

func (s *questionService) applyQuestionUpdates(question *models.Question, req *UpdateQuestionRequest) {
	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.Required != nil {
		question.Required = *req.Required
	}
	if req.Content != nil {
		question.Content = req.Content
	}
	if req.Explanation != nil {
		question.Explanation = req.Explanation
	}
}

func (s *questionService) canManageQuestion(ctx context.Context, question *models.Question, userID string) (bool, error) {
	if question.CreatedBy == userID {
		return true, nil
	}
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

func (s *questionService) hasTeacherRole(ctx context.Context, userID string) (bool, error) {
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleTeacher || role == models.RoleAdmin, nil
}

func (s *questionService) getUserRole(ctx context.Context, userID string) (models.UserRole, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	return user.Role, nil
}
