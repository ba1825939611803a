package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushare/campushare-api/internal/models"
	"github.com/campushare/campushare-api/internal/service"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
	"github.com/campushare/campushare-api/pkg/response"
)

// ResourceHandler exposes upload, catalog and download endpoints.
type ResourceHandler struct {
	service *service.ResourceService
}

// NewResourceHandler creates a new handler.
func NewResourceHandler(svc *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: svc}
}

// Upload godoc
// @Summary Submit a resource
// @Description Students upload a file with metadata; it enters the pending queue
// @Tags Resources
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Resource title"
// @Param description formData string false "Resource description"
// @Param category_id formData string true "Category ID"
// @Param file formData file true "Resource file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /resources [post]
func (h *ResourceHandler) Upload(c *gin.Context) {
	var req models.SubmitResourceRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload payload"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	resource, err := h.service.Submit(c.Request.Context(), req, service.ResourceUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  file,
	}, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, resource)
}

// List godoc
// @Summary Browse the catalog
// @Description List approved resources with filters and pagination
// @Tags Resources
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter (lecturers only)"
// @Param category_id query string false "Category filter"
// @Param search query string false "Title or description search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	filter := filterFromQuery(c)
	resources, pagination, err := h.service.Browse(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resources, pagination)
}

// ListMine godoc
// @Summary List own uploads
// @Description Students list their own resources in every state
// @Tags Resources
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /resources/mine [get]
func (h *ResourceHandler) ListMine(c *gin.Context) {
	filter := filterFromQuery(c)
	resources, pagination, err := h.service.ListMine(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resources, pagination)
}

// Get godoc
// @Summary Fetch one resource
// @Tags Resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	resource, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resource, nil)
}

// Download godoc
// @Summary Download an approved resource
// @Description Streams the file and records the download
// @Tags Resources
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id}/download [get]
func (h *ResourceHandler) Download(c *gin.Context) {
	download, err := h.service.Download(c.Request.Context(), c.Param("id"), c.ClientIP(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.DataFromReader(http.StatusOK, download.Size, download.MimeType, download.File, nil)
}

func filterFromQuery(c *gin.Context) models.ResourceFilter {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return models.ResourceFilter{
		Status:     models.ResourceStatus(c.Query("status")),
		CategoryID: c.Query("category_id"),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   pageSize,
	}
}
