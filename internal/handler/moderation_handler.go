package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushare/campushare-api/internal/models"
	"github.com/campushare/campushare-api/internal/service"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
	"github.com/campushare/campushare-api/pkg/response"
)

// ModerationHandler exposes the lecturer review endpoints.
type ModerationHandler struct {
	service   *service.ResourceService
	dashboard *service.DashboardService
}

// NewModerationHandler creates a new handler. The dashboard service may be
// nil when the stats feature is disabled.
func NewModerationHandler(svc *service.ResourceService, dashboard *service.DashboardService) *ModerationHandler {
	return &ModerationHandler{service: svc, dashboard: dashboard}
}

// Pending godoc
// @Summary List the moderation queue
// @Description Pending resources ordered oldest first
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /moderation/pending [get]
func (h *ModerationHandler) Pending(c *gin.Context) {
	resources, err := h.service.PendingQueue(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resources, nil)
}

// Reviewed godoc
// @Summary List own review history
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /moderation/reviewed [get]
func (h *ModerationHandler) Reviewed(c *gin.Context) {
	filter := filterFromQuery(c)
	resources, pagination, err := h.service.ReviewedByMe(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resources, pagination)
}

// Review godoc
// @Summary Decide on a pending resource
// @Description Approve or reject; decisions are final
// @Tags Moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Param payload body models.ReviewResourceRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /moderation/resources/{id} [put]
func (h *ModerationHandler) Review(c *gin.Context) {
	var req models.ReviewResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	resource, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context())
	}

	response.JSON(c, http.StatusOK, resource, nil)
}
