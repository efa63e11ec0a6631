package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/cache"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/events"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
)

// ===== SHARED FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPublisher() *events.MockEventPublisher {
	return events.NewMockEventPublisher(testLogger())
}

func mustContent(t *testing.T, v interface{}) datatypes.JSON {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	return datatypes.JSON(data)
}

func mustAnswer(t *testing.T, v interface{}) datatypes.JSON {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal answer: %v", err)
	}
	return datatypes.JSON(data)
}

func multipleChoiceQuestion(t *testing.T, id uint, points int) models.Question {
	t.Helper()
	return models.Question{
		ID:     id,
		Type:   models.MultipleChoice,
		Text:   "Which case marks the direct object?",
		Points: points,
		Content: mustContent(t, models.MultipleChoiceContent{
			Options: []models.ChoiceOption{
				{ID: "opt-a", Text: "Accusative"},
				{ID: "opt-b", Text: "Dative"},
				{ID: "opt-c", Text: "Genitive"},
			},
			CorrectOptionID: "opt-a",
		}),
		CreatedBy: "teacher-1",
	}
}

func essayQuestion(t *testing.T, id uint, points int) models.Question {
	t.Helper()
	return models.Question{
		ID:        id,
		Type:      models.Essay,
		Text:      "Describe your morning routine in Russian.",
		Points:    points,
		Content:   mustContent(t, models.EssayContent{}),
		CreatedBy: "teacher-1",
	}
}

func activeQuiz(questions ...models.QuizQuestion) *models.Quiz {
	quiz := &models.Quiz{
		ID:           1,
		Title:        "Russian Cases",
		Status:       models.QuizStatusActive,
		PassingScore: 70,
		MaxAttempts:  3,
		CreatedBy:    "teacher-1",
		Settings: models.QuizSettings{
			QuizID:              1,
			ShowResults:         true,
			ShowCorrectAnswers:  true,
			ShowScoreBreakdown:  true,
			AllowRetake:         true,
			AutoSubmitOnTimeout: true,
		},
		Questions: questions,
	}
	quiz.QuestionCount = len(questions)
	for i := range questions {
		quiz.TotalPoints += questions[i].EffectivePoints()
	}
	return quiz
}

func teacherUser(id string) *models.User {
	return &models.User{ID: id, FullName: "Test Teacher", Email: id + "@example.com", Role: models.RoleTeacher, IsActive: true}
}

func studentUser(id string) *models.User {
	return &models.User{ID: id, FullName: "Test Student", Email: id + "@example.com", Role: models.RoleStudent, IsActive: true}
}

func timePtr(t time.Time) *time.Time { return &t }

// ===== IN-MEMORY CACHE =====

// memoryCache is a map-backed CacheService for service tests; TTLs are
// accepted and ignored.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string][]byte)
	return nil
}

// ===== GRADING SERVICE MOCK =====

type MockGradingService struct {
	mock.Mock
}

func (m *MockGradingService) AutoGradeAttempt(ctx context.Context, attemptID uint) error {
	args := m.Called(ctx, attemptID)
	return args.Error(0)
}

func (m *MockGradingService) GradeAnswer(ctx context.Context, answerID uint, req *GradeAnswerRequest, graderID string) (*AnswerResultResponse, error) {
	args := m.Called(ctx, answerID, req, graderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AnswerResultResponse), args.Error(1)
}

func (m *MockGradingService) GetPendingAnswers(ctx context.Context, quizID uint, userID string) ([]*PendingAnswerResponse, error) {
	args := m.Called(ctx, quizID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*PendingAnswerResponse), args.Error(1)
}

func (m *MockGradingService) GetGradingStats(ctx context.Context, quizID uint, userID string) (*repositories.GradingStats, error) {
	args := m.Called(ctx, quizID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.GradingStats), args.Error(1)
}
