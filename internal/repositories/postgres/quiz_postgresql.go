package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Preload("Settings").
		First(&quiz, id).Error; err != nil {
		return nil, err
	}

	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Preload("Settings").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.\"order\" ASC")
		}).
		Preload("Questions.Question").
		First(&quiz, id).Error; err != nil {
		return nil, err
	}

	quiz.QuestionCount = len(quiz.Questions)
	for _, qq := range quiz.Questions {
		quiz.TotalPoints += qq.EffectivePoints()
	}

	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Save(quiz).Error
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Delete(&models.Quiz{}, id).Error
}

func (q *QuizPostgreSQL) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Quiz{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.applyPaginationAndSort(query, filters)

	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

func (q *QuizPostgreSQL) GetByCreator(ctx context.Context, creatorID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.CreatedBy = &creatorID
	return q.List(ctx, filters)
}

func (q *QuizPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.QuizStatus) error {
	return q.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (q *QuizPostgreSQL) GetExpired(ctx context.Context, cutoff time.Time) ([]*models.Quiz, error) {
	var quizzes []*models.Quiz
	if err := q.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", models.QuizStatusActive, cutoff).
		Find(&quizzes).Error; err != nil {
		return nil, err
	}

	return quizzes, nil
}

func (q *QuizPostgreSQL) AddQuestion(ctx context.Context, qq *models.QuizQuestion) error {
	return q.db.WithContext(ctx).Create(qq).Error
}

func (q *QuizPostgreSQL) RemoveQuestion(ctx context.Context, quizID, questionID uint) error {
	return q.db.WithContext(ctx).
		Where("quiz_id = ? AND question_id = ?", quizID, questionID).
		Delete(&models.QuizQuestion{}).Error
}

func (q *QuizPostgreSQL) GetQuestions(ctx context.Context, quizID uint) ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion
	if err := q.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("\"order\" ASC").
		Preload("Question").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (q *QuizPostgreSQL) ReorderQuestions(ctx context.Context, quizID uint, orders []repositories.QuestionOrder) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, order := range orders {
			result := tx.Model(&models.QuizQuestion{}).
				Where("quiz_id = ? AND question_id = ?", quizID, order.QuestionID).
				Update("order", order.Order)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("question %d is not part of quiz %d", order.QuestionID, quizID)
			}
		}
		return nil
	})
}

func (q *QuizPostgreSQL) GetStats(ctx context.Context, quizID uint) (*repositories.QuizStats, error) {
	stats := &repositories.QuizStats{}

	var questions []*models.QuizQuestion
	if err := q.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Preload("Question").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	stats.QuestionCount = len(questions)
	for _, qq := range questions {
		stats.TotalPoints += qq.EffectivePoints()
	}

	var total, completed, passed int64
	var avgScore *float64

	base := q.db.WithContext(ctx).Model(&models.QuizAttempt{}).Where("quiz_id = ?", quizID)
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}
	if err := q.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND status = ?", quizID, models.AttemptStatusGraded).
		Count(&completed).Error; err != nil {
		return nil, err
	}
	if err := q.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND status = ? AND passed = true", quizID, models.AttemptStatusGraded).
		Count(&passed).Error; err != nil {
		return nil, err
	}
	if err := q.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND status = ?", quizID, models.AttemptStatusGraded).
		Select("AVG(percentage)").Scan(&avgScore).Error; err != nil {
		return nil, err
	}

	stats.TotalAttempts = int(total)
	stats.CompletedAttempts = int(completed)
	if avgScore != nil {
		stats.AverageScore = *avgScore
	}
	if completed > 0 {
		stats.PassRate = float64(passed) / float64(completed) * 100
	}

	return stats, nil
}

func (q *QuizPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuizFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (q *QuizPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.QuizFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "title", "due_date", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if filters.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
