package events

import (
	"time"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/utils"
)

// EventType represents different types of quiz events
type EventType string

const (
	// Quiz lifecycle events
	EventQuizPublished EventType = "quiz.published"
	EventQuizArchived  EventType = "quiz.archived"

	// Attempt events
	EventAttemptStarted   EventType = "quiz.attempt.started"
	EventAttemptSubmitted EventType = "quiz.attempt.submitted"
	EventAttemptGraded    EventType = "quiz.attempt.graded"
	EventAttemptTimedOut  EventType = "quiz.attempt.timed_out"

	// Grading events
	EventAnswerGraded          EventType = "quiz.answer.graded"
	EventManualGradingRequired EventType = "quiz.grading.manual_required"
)

const eventSource = "quiz-service"

// QuizEvent is the base event structure for all quiz events
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Quiz lifecycle event payloads

type QuizPublishedEvent struct {
	QuizID        uint       `json:"quiz_id"`
	QuizTitle     string     `json:"quiz_title"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	TimeLimit     *int       `json:"time_limit,omitempty"` // minutes
	QuestionCount int        `json:"question_count"`
	TotalPoints   int        `json:"total_points"`
	CreatorID     string     `json:"creator_id"`
}

type QuizArchivedEvent struct {
	QuizID     uint      `json:"quiz_id"`
	QuizTitle  string    `json:"quiz_title"`
	ArchivedAt time.Time `json:"archived_at"`
	ArchivedBy string    `json:"archived_by"`
}

// Attempt event payloads

type AttemptStartedEvent struct {
	AttemptID     string     `json:"attempt_id"`
	QuizID        uint       `json:"quiz_id"`
	QuizTitle     string     `json:"quiz_title"`
	StudentID     string     `json:"student_id"`
	AttemptNumber int        `json:"attempt_number"`
	StartedAt     time.Time  `json:"started_at"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

type AttemptSubmittedEvent struct {
	AttemptID       string    `json:"attempt_id"`
	QuizID          uint      `json:"quiz_id"`
	QuizTitle       string    `json:"quiz_title"`
	StudentID       string    `json:"student_id"`
	SubmittedAt     time.Time `json:"submitted_at"`
	AnsweredCount   int       `json:"answered_count"`
	QuestionCount   int       `json:"question_count"`
	GradingRequired bool      `json:"grading_required"`
	TimedOut        bool      `json:"timed_out"`
}

type AttemptGradedEvent struct {
	AttemptID    string    `json:"attempt_id"`
	QuizID       uint      `json:"quiz_id"`
	QuizTitle    string    `json:"quiz_title"`
	StudentID    string    `json:"student_id"`
	GradedAt     time.Time `json:"graded_at"`
	Score        float64   `json:"score"`
	MaxScore     float64   `json:"max_score"`
	Percentage   float64   `json:"percentage"`
	Passed       bool      `json:"passed"`
	PendingCount int       `json:"pending_count"`
	GradedBy     string    `json:"graded_by,omitempty"`
}

// Grading event payloads

type AnswerGradedEvent struct {
	AttemptID      string    `json:"attempt_id"`
	QuizID         uint      `json:"quiz_id"`
	QuestionID     uint      `json:"question_id"`
	StudentID      string    `json:"student_id"`
	Score          float64   `json:"score"`
	MaxScore       float64   `json:"max_score"`
	FullyCorrect   bool      `json:"fully_correct"`
	ManuallyGraded bool      `json:"manually_graded"`
	GradedAt       time.Time `json:"graded_at"`
}

type ManualGradingRequiredEvent struct {
	AttemptID    string    `json:"attempt_id"`
	QuizID       uint      `json:"quiz_id"`
	QuizTitle    string    `json:"quiz_title"`
	StudentID    string    `json:"student_id"`
	PendingCount int       `json:"pending_count"`
	RequiredAt   time.Time `json:"required_at"`
	CreatorID    string    `json:"creator_id"`
}

// Event factory functions

func NewQuizPublishedEvent(quizID uint, title string, dueDate *time.Time, timeLimit *int, questionCount, totalPoints int, creatorID string) *QuizEvent {
	return newEvent(EventQuizPublished, QuizPublishedEvent{
		QuizID:        quizID,
		QuizTitle:     title,
		DueDate:       dueDate,
		TimeLimit:     timeLimit,
		QuestionCount: questionCount,
		TotalPoints:   totalPoints,
		CreatorID:     creatorID,
	})
}

func NewQuizArchivedEvent(quizID uint, title, archivedBy string) *QuizEvent {
	return newEvent(EventQuizArchived, QuizArchivedEvent{
		QuizID:     quizID,
		QuizTitle:  title,
		ArchivedAt: time.Now(),
		ArchivedBy: archivedBy,
	})
}

func NewAttemptStartedEvent(attemptID string, quizID uint, title, studentID string, attemptNumber int, startedAt time.Time, endTime *time.Time) *QuizEvent {
	return newEvent(EventAttemptStarted, AttemptStartedEvent{
		AttemptID:     attemptID,
		QuizID:        quizID,
		QuizTitle:     title,
		StudentID:     studentID,
		AttemptNumber: attemptNumber,
		StartedAt:     startedAt,
		EndTime:       endTime,
	})
}

func NewAttemptSubmittedEvent(attemptID string, quizID uint, title, studentID string, submittedAt time.Time, answeredCount, questionCount int, gradingRequired, timedOut bool) *QuizEvent {
	eventType := EventAttemptSubmitted
	if timedOut {
		eventType = EventAttemptTimedOut
	}
	return newEvent(eventType, AttemptSubmittedEvent{
		AttemptID:       attemptID,
		QuizID:          quizID,
		QuizTitle:       title,
		StudentID:       studentID,
		SubmittedAt:     submittedAt,
		AnsweredCount:   answeredCount,
		QuestionCount:   questionCount,
		GradingRequired: gradingRequired,
		TimedOut:        timedOut,
	})
}

func NewAttemptGradedEvent(attemptID string, quizID uint, title, studentID string, gradedAt time.Time, score, maxScore, percentage float64, passed bool, pendingCount int, gradedBy string) *QuizEvent {
	return newEvent(EventAttemptGraded, AttemptGradedEvent{
		AttemptID:    attemptID,
		QuizID:       quizID,
		QuizTitle:    title,
		StudentID:    studentID,
		GradedAt:     gradedAt,
		Score:        score,
		MaxScore:     maxScore,
		Percentage:   percentage,
		Passed:       passed,
		PendingCount: pendingCount,
		GradedBy:     gradedBy,
	})
}

func NewAnswerGradedEvent(attemptID string, quizID, questionID uint, studentID string, score, maxScore float64, fullyCorrect, manuallyGraded bool) *QuizEvent {
	return newEvent(EventAnswerGraded, AnswerGradedEvent{
		AttemptID:      attemptID,
		QuizID:         quizID,
		QuestionID:     questionID,
		StudentID:      studentID,
		Score:          score,
		MaxScore:       maxScore,
		FullyCorrect:   fullyCorrect,
		ManuallyGraded: manuallyGraded,
		GradedAt:       time.Now(),
	})
}

func NewManualGradingRequiredEvent(attemptID string, quizID uint, title, studentID string, pendingCount int, creatorID string) *QuizEvent {
	return newEvent(EventManualGradingRequired, ManualGradingRequiredEvent{
		AttemptID:    attemptID,
		QuizID:       quizID,
		QuizTitle:    title,
		StudentID:    studentID,
		PendingCount: pendingCount,
		RequiredAt:   time.Now(),
		CreatorID:    creatorID,
	})
}

func newEvent(eventType EventType, data interface{}) *QuizEvent {
	return &QuizEvent{
		ID:        utils.NewULID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}
