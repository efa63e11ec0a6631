package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/services"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/utils"
)

type HandlerManager struct {
	quizHandler     *QuizHandler
	questionHandler *QuestionHandler
	attemptHandler  *AttemptHandler
	gradingHandler  *GradingHandler
	exportHandler   *ExportHandler
}

func NewHandlerManager(
	quizService services.QuizService,
	questionService services.QuestionService,
	attemptService services.AttemptService,
	gradingService services.GradingService,
	exportService services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:     NewQuizHandler(quizService, logger),
		questionHandler: NewQuestionHandler(questionService, logger),
		attemptHandler:  NewAttemptHandler(attemptService, logger),
		gradingHandler:  NewGradingHandler(gradingService, logger),
		exportHandler:   NewExportHandler(exportService, logger),
	}
}

// SetupRoutes sets up all API routes. The auth middleware is applied by the
// caller so tests can mount the routes with a stub identity.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	if authMiddleware != nil {
		v1.Use(authMiddleware)
	}
	{
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/:id/details", hm.quizHandler.GetQuizWithQuestions)
			quizzes.PUT("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/publish", hm.quizHandler.PublishQuiz)
			quizzes.POST("/:id/archive", hm.quizHandler.ArchiveQuiz)
			quizzes.GET("/:id/stats", hm.quizHandler.GetQuizStats)
			quizzes.GET("/:id/export", hm.exportHandler.ExportQuizResults)

			// Quiz question management
			quizzes.POST("/:id/questions/:question_id", hm.quizHandler.AddQuestionToQuiz)
			quizzes.DELETE("/:id/questions/:question_id", hm.quizHandler.RemoveQuestionFromQuiz)
			quizzes.PUT("/:id/questions/reorder", hm.quizHandler.ReorderQuizQuestions)
		}

		questions := v1.Group("/questions")
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListMyAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.PUT("/:id/answers", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/result", hm.attemptHandler.GetAttemptResult)
		}

		grading := v1.Group("/grading")
		{
			grading.POST("/answers/:answer_id", hm.gradingHandler.GradeAnswer)
			grading.POST("/attempts/:attempt_id/auto", hm.gradingHandler.AutoGradeAttempt)
			grading.GET("/quizzes/:quiz_id/pending", hm.gradingHandler.GetPendingAnswers)
			grading.GET("/quizzes/:quiz_id/stats", hm.gradingHandler.GetGradingStats)
		}
	}
}
