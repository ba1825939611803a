package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushare/campushare-api/internal/service"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
	"github.com/campushare/campushare-api/pkg/response"
)

// ReportHandler exposes moderation report generation and retrieval.
type ReportHandler struct {
	service *service.ExportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ExportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Generate godoc
// @Summary Generate a moderation report
// @Description Renders the review history as CSV or PDF and returns a signed retrieval token
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param format query string false "Report format (csv or pdf)" default(csv)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/moderation [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	format := c.DefaultQuery("format", service.ReportFormatCSV)

	report, err := h.service.ModerationReport(c.Request.Context(), format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// Fetch godoc
// @Summary Retrieve a generated report
// @Description Streams a report file addressed by its signed token
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed report token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/files [get]
func (h *ReportHandler) Fetch(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	download, err := h.service.FetchReport(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.DataFromReader(http.StatusOK, download.Size, download.MimeType, download.File, nil)
}
