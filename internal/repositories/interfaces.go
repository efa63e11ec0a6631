package repositories

import (
	"context"
	"time"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// Repository aggregates all repository interfaces and transaction support
type Repository interface {
	Quiz() QuizRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	User() UserRepository

	// WithTransaction runs fn against a repository bound to a single
	// database transaction, committing on nil and rolling back on error.
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
}

// ===== REPOSITORY INTERFACES =====

// QuizRepository interface for quiz operations
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCreator(ctx context.Context, creatorID string, filters QuizFilters) ([]*models.Quiz, int64, error)

	UpdateStatus(ctx context.Context, id uint, status models.QuizStatus) error
	GetExpired(ctx context.Context, cutoff time.Time) ([]*models.Quiz, error)

	// Question assignment
	AddQuestion(ctx context.Context, qq *models.QuizQuestion) error
	RemoveQuestion(ctx context.Context, quizID, questionID uint) error
	GetQuestions(ctx context.Context, quizID uint) ([]*models.QuizQuestion, error)
	ReorderQuestions(ctx context.Context, quizID uint, orders []QuestionOrder) error

	GetStats(ctx context.Context, quizID uint) (*QuizStats, error)
}

// QuestionRepository interface for question bank operations
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
	GetByCreator(ctx context.Context, creatorID string, filters QuestionFilters) ([]*models.Question, int64, error)

	IsUsedInQuizzes(ctx context.Context, id uint) (bool, error)
}

// AttemptRepository interface for quiz attempt operations
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.QuizAttempt, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error)
	Update(ctx context.Context, attempt *models.QuizAttempt) error

	List(ctx context.Context, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetByStudentAndQuiz(ctx context.Context, studentID string, quizID uint) ([]*models.QuizAttempt, error)
	GetActiveAttempt(ctx context.Context, studentID string, quizID uint) (*models.QuizAttempt, error)
	GetAttemptCount(ctx context.Context, studentID string, quizID uint) (int, error)

	UpdateStatus(ctx context.Context, id uint, status models.AttemptStatus) error
	GetTimedOutAttempts(ctx context.Context, now time.Time) ([]*models.QuizAttempt, error)

	GetQuizAttemptStats(ctx context.Context, quizID uint) (*AttemptStats, error)
}

// AnswerRepository interface for student answer operations
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.StudentAnswer) error
	GetByID(ctx context.Context, id uint) (*models.StudentAnswer, error)
	Update(ctx context.Context, answer *models.StudentAnswer) error
	UpsertAnswer(ctx context.Context, answer *models.StudentAnswer) error

	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.StudentAnswer, error)
	GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.StudentAnswer, error)
	GetPendingByAttempt(ctx context.Context, attemptID uint) ([]*models.StudentAnswer, error)
	GetPendingForQuiz(ctx context.Context, quizID uint) ([]*models.StudentAnswer, error)

	CountByStatus(ctx context.Context, attemptID uint) (map[models.AnswerStatus]int, error)
	GetGradingStats(ctx context.Context, quizID uint) (*GradingStats, error)
}

// UserRepository interface for user lookups
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	GetByRole(ctx context.Context, role models.UserRole) ([]*models.User, error)
}

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	Status    *models.QuizStatus `json:"status"`
	CreatedBy *string            `json:"created_by"`
	DateFrom  *time.Time         `json:"date_from"`
	DateTo    *time.Time         `json:"date_to"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "title", "due_date"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type QuestionFilters struct {
	Type       *models.QuestionType    `json:"type"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	CreatedBy  *string                 `json:"created_by"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`
	SortOrder  string                  `json:"sort_order"`
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	QuizID    *uint                 `json:"quiz_id"`
	StudentID *string               `json:"student_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// ===== SHARED HELPER STRUCTS =====

type QuestionOrder struct {
	QuestionID uint `json:"question_id"`
	Order      int  `json:"order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type QuizStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
	PassRate          float64 `json:"pass_rate"`
	QuestionCount     int     `json:"question_count"`
	TotalPoints       int     `json:"total_points"`
}

type AttemptStats struct {
	TotalAttempts   int                          `json:"total_attempts"`
	StatusBreakdown map[models.AttemptStatus]int `json:"status_breakdown"`
	AverageScore    float64                      `json:"average_score"`
	PassRate        float64                      `json:"pass_rate"`
	CompletionRate  float64                      `json:"completion_rate"`
}

type GradingStats struct {
	TotalAnswers   int     `json:"total_answers"`
	GradedAnswers  int     `json:"graded_answers"`
	PendingAnswers int     `json:"pending_answers"`
	AutoGraded     int     `json:"auto_graded"`
	ManualGraded   int     `json:"manual_graded"`
	AverageScore   float64 `json:"average_score"`
}
