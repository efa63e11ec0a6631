package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/services"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

type StartAttemptRequest struct {
	QuizID uint `json:"quiz_id" validate:"required"`
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt starts or resumes a quiz attempt for the caller
// @Summary Start attempt
// @Description Starts a new attempt or resumes an unexpired in-progress one
// @Tags attempts
// @Accept json
// @Produce json
// @Param body body StartAttemptRequest true "Quiz to attempt"
// @Success 201 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if req.QuizID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "quiz_id is required",
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting attempt", "quiz_id", req.QuizID)

	attempt, err := h.attemptService.Start(c.Request.Context(), req.QuizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// GetAttempt retrieves an attempt by its public ID
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt public ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	publicID := h.parseStringIDParam(c, "id")
	if publicID == "" {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetByPublicID(c.Request.Context(), publicID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SaveAnswer stores or replaces an answer inside an active attempt
// @Summary Save answer
// @Description Saves an answer draft; the payload is validated against the
// question content but scoring happens only at submit time
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt public ID"
// @Param answer body services.SaveAnswerRequest true "Answer payload"
// @Success 200 {object} services.SaveAnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/{id}/answers [put]
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	publicID := h.parseStringIDParam(c, "id")
	if publicID == "" {
		return
	}

	var req services.SaveAnswerRequest
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

	resp, err := h.attemptService.SaveAnswer(c.Request.Context(), publicID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitAttempt finalizes an attempt and triggers grading
// @Summary Submit attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt public ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	publicID := h.parseStringIDParam(c, "id")
	if publicID == "" {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", publicID)

	attempt, err := h.attemptService.Submit(c.Request.Context(), publicID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetAttemptResult returns the scored result of a finished attempt
// @Summary Get attempt result
// @Description Returns score summary and, subject to the quiz visibility
// settings, the per-answer breakdown
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt public ID"
// @Success 200 {object} services.AttemptResultResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/result [get]
func (h *AttemptHandler) GetAttemptResult(c *gin.Context) {
	publicID := h.parseStringIDParam(c, "id")
	if publicID == "" {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), publicID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListMyAttempts lists the caller's attempts
// @Summary List own attempts
// @Tags attempts
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param quiz_id query int false "Filter by quiz"
// @Param status query string false "Filter by status"
// @Success 200 {object} services.AttemptListResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	filters := h.parseAttemptFilters(c)
	attempts, err := h.attemptService.ListForStudent(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}

// ===== FILTER PARSING =====

func (h *AttemptHandler) parseAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.AttemptFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "started_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if quizID := h.parseIntQuery(c, "quiz_id", 0); quizID > 0 {
		id := uint(quizID)
		filters.QuizID = &id
	}
	if status := c.Query("status"); status != "" {
		s := models.AttemptStatus(status)
		filters.Status = &s
	}
	return filters
}
