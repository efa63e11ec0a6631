package services

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/scoring"
)

// ===== SERVICE INTERFACES =====

// QuizService manages the quiz lifecycle and question assignment.
type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error)
	GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*QuizResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	List(ctx context.Context, filters repositories.QuizFilters, userID string) (*QuizListResponse, error)

	Publish(ctx context.Context, id uint, userID string) error
	Archive(ctx context.Context, id uint, userID string) error

	AddQuestion(ctx context.Context, quizID, questionID uint, order int, points *int, userID string) error
	RemoveQuestion(ctx context.Context, quizID, questionID uint, userID string) error
	ReorderQuestions(ctx context.Context, quizID uint, orders []repositories.QuestionOrder, userID string) error

	GetStats(ctx context.Context, id uint, userID string) (*repositories.QuizStats, error)
}

// QuestionService manages the question bank.
type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.Question, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.Question, error)
	Delete(ctx context.Context, id uint, userID string) error

	List(ctx context.Context, filters repositories.QuestionFilters, userID string) (*QuestionListResponse, error)
}

// AttemptService drives the quiz taking flow from start to submission.
type AttemptService interface {
	Start(ctx context.Context, quizID uint, studentID string) (*AttemptResponse, error)
	GetByPublicID(ctx context.Context, publicID string, userID string) (*AttemptResponse, error)
	SaveAnswer(ctx context.Context, publicID string, req *SaveAnswerRequest, studentID string) (*SaveAnswerResponse, error)
	Submit(ctx context.Context, publicID string, studentID string) (*AttemptResponse, error)

	GetResult(ctx context.Context, publicID string, userID string) (*AttemptResultResponse, error)
	ListForStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) (*AttemptListResponse, error)

	// ProcessTimedOut finds in-progress attempts past their deadline and
	// auto-submits those whose quiz settings allow it. Intended to run
	// from a periodic job.
	ProcessTimedOut(ctx context.Context) (int, error)
}

// GradingService scores answers and finalizes attempt results.
type GradingService interface {
	AutoGradeAttempt(ctx context.Context, attemptID uint) error
	GradeAnswer(ctx context.Context, answerID uint, req *GradeAnswerRequest, graderID string) (*AnswerResultResponse, error)

	GetPendingAnswers(ctx context.Context, quizID uint, userID string) ([]*PendingAnswerResponse, error)
	GetGradingStats(ctx context.Context, quizID uint, userID string) (*repositories.GradingStats, error)
}

// ExportService produces downloadable result reports.
type ExportService interface {
	ExportQuizResultsXLSX(ctx context.Context, quizID uint, userID string) ([]byte, string, error)
	ExportQuizResultsCSV(ctx context.Context, quizID uint, userID string) ([]byte, string, error)
}

// ===== QUIZ DTOS =====

type CreateQuizRequest struct {
	Title        string     `json:"title" validate:"required,min=1,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=1000"`
	PassingScore *int       `json:"passing_score" validate:"omitempty,min=0,max=100"`
	MaxAttempts  *int       `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	TimeLimit    *int       `json:"time_limit" validate:"omitempty,min=1,max=300"`
	DueDate      *time.Time `json:"due_date"`

	Settings *QuizSettingsRequest `json:"settings"`
}

type UpdateQuizRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=1000"`
	PassingScore *int       `json:"passing_score" validate:"omitempty,min=0,max=100"`
	MaxAttempts  *int       `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	TimeLimit    *int       `json:"time_limit" validate:"omitempty,min=1,max=300"`
	DueDate      *time.Time `json:"due_date"`

	Settings *QuizSettingsRequest `json:"settings"`
}

type QuizSettingsRequest struct {
	ShuffleQuestions   *bool `json:"shuffle_questions"`
	ShuffleOptions     *bool `json:"shuffle_options"`
	ShowResults        *bool `json:"show_results"`
	ShowCorrectAnswers *bool `json:"show_correct_answers"`
	ShowScoreBreakdown *bool `json:"show_score_breakdown"`
	AllowRetake        *bool `json:"allow_retake"`
	RetakeDelay        *int  `json:"retake_delay" validate:"omitempty,min=0"`

	AutoSubmitOnTimeout *bool `json:"auto_submit_on_timeout"`
	AutoSaveInterval    *int  `json:"auto_save_interval" validate:"omitempty,min=5,max=300"`
}

type QuizResponse struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Description  *string           `json:"description"`
	Status       models.QuizStatus `json:"status"`
	PassingScore int               `json:"passing_score"`
	MaxAttempts  int               `json:"max_attempts"`
	TimeLimit    *int              `json:"time_limit"`
	DueDate      *time.Time        `json:"due_date"`
	CreatedBy    string            `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	Settings      models.QuizSettings `json:"settings"`
	QuestionCount int                 `json:"question_count"`
	TotalPoints   int                 `json:"total_points"`

	// Populated only by GetByIDWithQuestions.
	Questions []*QuizQuestionResponse `json:"questions,omitempty"`
}

type QuizQuestionResponse struct {
	QuestionID uint                   `json:"question_id"`
	Order      int                    `json:"order"`
	Points     int                    `json:"points"`
	Type       models.QuestionType    `json:"type"`
	Text       string                 `json:"text"`
	Difficulty models.DifficultyLevel `json:"difficulty"`
	Required   bool                   `json:"required"`

	// Content with correct-answer data stripped for learners; full content
	// for the quiz owner.
	Content datatypes.JSON `json:"content"`
}

type QuizListResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
}

// ===== QUESTION DTOS =====

type CreateQuestionRequest struct {
	Type        models.QuestionType    `json:"type" validate:"required,question_type"`
	Text        string                 `json:"text" validate:"required,min=1,max=2000"`
	Points      int                    `json:"points" validate:"required,min=1,max=100"`
	Difficulty  models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Required    bool                   `json:"required"`
	Content     datatypes.JSON         `json:"content" validate:"required"`
	Explanation *string                `json:"explanation"`
}

type UpdateQuestionRequest struct {
	Text        *string                 `json:"text" validate:"omitempty,min=1,max=2000"`
	Points      *int                    `json:"points" validate:"omitempty,min=1,max=100"`
	Difficulty  *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Required    *bool                   `json:"required"`
	Content     datatypes.JSON          `json:"content"`
	Explanation *string                 `json:"explanation"`
}

type QuestionListResponse struct {
	Questions []*models.Question `json:"questions"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Size      int                `json:"size"`
}

// ===== ATTEMPT DTOS =====

type AttemptResponse struct {
	PublicID      string               `json:"public_id"`
	QuizID        uint                 `json:"quiz_id"`
	QuizTitle     string               `json:"quiz_title"`
	StudentID     string               `json:"student_id"`
	Status        models.AttemptStatus `json:"status"`
	AttemptNumber int                  `json:"attempt_number"`
	StartedAt     time.Time            `json:"started_at"`
	EndTime       *time.Time           `json:"end_time"`
	SubmittedAt   *time.Time           `json:"submitted_at"`

	QuestionCount int `json:"question_count"`
	AnsweredCount int `json:"answered_count"`
}

type AttemptListResponse struct {
	Attempts []*AttemptResponse `json:"attempts"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
}

type SaveAnswerRequest struct {
	QuestionID uint           `json:"question_id" validate:"required"`
	AnswerData datatypes.JSON `json:"answer_data" validate:"required"`
	TimeSpent  int            `json:"time_spent" validate:"omitempty,min=0"`
}

type SaveAnswerResponse struct {
	QuestionID uint                      `json:"question_id"`
	Status     models.AnswerStatus       `json:"status"`
	Validation *scoring.ValidationResult `json:"validation"`
}

// ===== RESULT DTOS =====

type AttemptResultResponse struct {
	PublicID      string               `json:"public_id"`
	QuizID        uint                 `json:"quiz_id"`
	QuizTitle     string               `json:"quiz_title"`
	Status        models.AttemptStatus `json:"status"`
	AttemptNumber int                  `json:"attempt_number"`
	SubmittedAt   *time.Time           `json:"submitted_at"`
	GradedAt      *time.Time           `json:"graded_at"`

	Score           float64 `json:"score"`
	MaxScore        float64 `json:"max_score"`
	Percentage      float64 `json:"percentage"`
	Passed          bool    `json:"passed"`
	PendingCount    int     `json:"pending_count"`
	PartiallyGraded bool    `json:"partially_graded"`

	// Per-question breakdown, included only when the quiz settings allow it.
	Answers []*AnswerResultResponse `json:"answers,omitempty"`
}

type AnswerResultResponse struct {
	QuestionID   uint                `json:"question_id"`
	QuestionText string              `json:"question_text"`
	Type         models.QuestionType `json:"type"`

	Score          float64 `json:"score"`
	MaxScore       float64 `json:"max_score"`
	IsFullyCorrect bool    `json:"is_fully_correct"`
	IsPending      bool    `json:"is_pending"`

	Verdict  *scoring.Verdict `json:"verdict,omitempty"`
	Feedback *string          `json:"feedback,omitempty"`

	// Learner's submitted answer and, when the quiz reveals them, the
	// correct-answer content and explanation.
	AnswerData  datatypes.JSON `json:"answer_data,omitempty"`
	Content     datatypes.JSON `json:"content,omitempty"`
	Explanation *string        `json:"explanation,omitempty"`
}

// ===== GRADING DTOS =====

type GradeAnswerRequest struct {
	Score    float64 `json:"score" validate:"min=0"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

type PendingAnswerResponse struct {
	AnswerID      uint                `json:"answer_id"`
	AttemptID     uint                `json:"attempt_id"`
	QuestionID    uint                `json:"question_id"`
	QuestionText  string              `json:"question_text"`
	Type          models.QuestionType `json:"type"`
	MaxScore      float64             `json:"max_score"`
	AnswerData    datatypes.JSON      `json:"answer_data"`
	SubmittedAt   time.Time           `json:"submitted_at"`
}
