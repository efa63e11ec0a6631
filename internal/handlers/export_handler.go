package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/services"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/utils"
)

type ExportHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportQuizResults downloads all attempt results for a quiz as a file
// @Summary Export quiz results
// @Description Exports attempt results as xlsx (default) or csv
// @Tags export
// @Produce application/octet-stream
// @Param id path uint true "Quiz ID"
// @Param format query string false "File format: xlsx or csv"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /quizzes/{id}/export [get]
func (h *ExportHandler) ExportQuizResults(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	h.LogRequest(c, "Exporting quiz results", "quiz_id", quizID, "format", format)

	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)
	switch format {
	case "xlsx":
		data, filename, err = h.exportService.ExportQuizResultsXLSX(c.Request.Context(), quizID, userID)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		data, filename, err = h.exportService.ExportQuizResultsCSV(c.Request.Context(), quizID, userID)
		contentType = "text/csv"
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
			Details: "format must be xlsx or csv",
		})
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
