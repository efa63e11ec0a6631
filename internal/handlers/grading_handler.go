package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/services"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeAnswer grades a pending essay or code answer manually
// @Summary Grade answer
// @Description Assigns a manual score to a pending answer; when the last
// pending answer is graded the attempt moves to graded
// @Tags grading
// @Accept json
// @Produce json
// @Param answer_id path uint true "Answer ID"
// @Param grade body services.GradeAnswerRequest true "Score and optional feedback"
// @Success 200 {object} services.AnswerResultResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /grading/answers/{answer_id} [post]
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	answerID := h.parseIDParam(c, "answer_id")
	if answerID == 0 {
		return
	}

	var req services.GradeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Grading answer", "answer_id", answerID)

	result, err := h.gradingService.GradeAnswer(c.Request.Context(), answerID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AutoGradeAttempt re-runs automatic grading on a submitted attempt
// @Summary Auto-grade attempt
// @Description Re-scores all auto-gradable answers; manual grades are kept
// @Tags grading
// @Param attempt_id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /grading/attempts/{attempt_id}/auto [post]
func (h *GradingHandler) AutoGradeAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "attempt_id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Auto-grading attempt", "attempt_id", attemptID)

	if err := h.gradingService.AutoGradeAttempt(c.Request.Context(), attemptID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Attempt graded"})
}

// GetPendingAnswers lists answers awaiting manual grading for a quiz
// @Summary Pending answers
// @Tags grading
// @Produce json
// @Param quiz_id path uint true "Quiz ID"
// @Success 200 {array} services.PendingAnswerResponse
// @Failure 403 {object} ErrorResponse
// @Router /grading/quizzes/{quiz_id}/pending [get]
func (h *GradingHandler) GetPendingAnswers(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	answers, err := h.gradingService.GetPendingAnswers(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answers)
}

// GetGradingStats returns grading progress counters for a quiz
// @Summary Grading statistics
// @Tags grading
// @Produce json
// @Param quiz_id path uint true "Quiz ID"
// @Success 200 {object} repositories.GradingStats
// @Failure 403 {object} ErrorResponse
// @Router /grading/quizzes/{quiz_id}/stats [get]
func (h *GradingHandler) GetGradingStats(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.gradingService.GetGradingStats(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
