package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) Create(ctx context.Context, answer *models.StudentAnswer) error {
	return a.db.WithContext(ctx).Create(answer).Error
}

func (a *AnswerPostgreSQL) GetByID(ctx context.Context, id uint) (*models.StudentAnswer, error) {
	var answer models.StudentAnswer
	if err := a.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return nil, err
	}

	return &answer, nil
}

func (a *AnswerPostgreSQL) Update(ctx context.Context, answer *models.StudentAnswer) error {
	return a.db.WithContext(ctx).Save(answer).Error
}

// UpsertAnswer inserts or replaces the answer row for the attempt/question
// pair. Re-answering before submission overwrites the previous snapshot.
func (a *AnswerPostgreSQL) UpsertAnswer(ctx context.Context, answer *models.StudentAnswer) error {
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "answer_data", "time_spent", "updated_at",
			}),
		}).
		Create(answer).Error
}

func (a *AnswerPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

func (a *AnswerPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.StudentAnswer, error) {
	var answer models.StudentAnswer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &answer, nil
}

func (a *AnswerPostgreSQL) GetPendingByAttempt(ctx context.Context, attemptID uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ? AND is_pending = true", attemptID).
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

func (a *AnswerPostgreSQL) GetPendingForQuiz(ctx context.Context, quizID uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	if err := a.db.WithContext(ctx).
		Preload("Question").
		Joins("JOIN quiz_attempts ON quiz_attempts.id = student_answers.attempt_id").
		Where("quiz_attempts.quiz_id = ? AND student_answers.is_pending = true", quizID).
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

func (a *AnswerPostgreSQL) CountByStatus(ctx context.Context, attemptID uint) (map[models.AnswerStatus]int, error) {
	type statusCount struct {
		Status models.AnswerStatus
		Count  int
	}
	var counts []statusCount
	if err := a.db.WithContext(ctx).
		Model(&models.StudentAnswer{}).
		Select("status, COUNT(*) as count").
		Where("attempt_id = ?", attemptID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	result := make(map[models.AnswerStatus]int, len(counts))
	for _, c := range counts {
		result[c.Status] = c.Count
	}
	return result, nil
}

func (a *AnswerPostgreSQL) GetGradingStats(ctx context.Context, quizID uint) (*repositories.GradingStats, error) {
	stats := &repositories.GradingStats{}

	base := a.db.WithContext(ctx).
		Model(&models.StudentAnswer{}).
		Joins("JOIN quiz_attempts ON quiz_attempts.id = student_answers.attempt_id").
		Where("quiz_attempts.quiz_id = ?", quizID)

	var total, pending, manual int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("student_answers.is_pending = true").Count(&pending).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("student_answers.graded_by IS NOT NULL").Count(&manual).Error; err != nil {
		return nil, err
	}

	var graded int64
	if err := base.Session(&gorm.Session{}).Where("student_answers.status = ?", models.AnswerStatusScored).Count(&graded).Error; err != nil {
		return nil, err
	}

	var avgScore *float64
	if err := base.Session(&gorm.Session{}).
		Where("student_answers.status = ?", models.AnswerStatusScored).
		Select("AVG(student_answers.score)").
		Scan(&avgScore).Error; err != nil {
		return nil, err
	}

	stats.TotalAnswers = int(total)
	stats.GradedAnswers = int(graded)
	stats.PendingAnswers = int(pending)
	stats.ManualGraded = int(manual)
	stats.AutoGraded = stats.GradedAnswers - stats.ManualGraded
	if avgScore != nil {
		stats.AverageScore = *avgScore
	}

	return stats, nil
}
