package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushare/campushare-api/internal/models"
	"github.com/campushare/campushare-api/internal/service"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
	"github.com/campushare/campushare-api/pkg/response"
)

// AccountHandler exposes account provisioning endpoints.
type AccountHandler struct {
	service *service.AccountService
}

// NewAccountHandler creates a new handler.
func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// RegisterStudent godoc
// @Summary Register a student account
// @Description Create a student user with its profile in one step
// @Tags Accounts
// @Accept json
// @Produce json
// @Param payload body models.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /accounts/students [post]
func (h *AccountHandler) RegisterStudent(c *gin.Context) {
	var req models.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	account, err := h.service.RegisterStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, account)
}

// RegisterLecturer godoc
// @Summary Register a lecturer account
// @Description Create a lecturer user with its profile in one step
// @Tags Accounts
// @Accept json
// @Produce json
// @Param payload body models.CreateLecturerRequest true "Lecturer payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /accounts/lecturers [post]
func (h *AccountHandler) RegisterLecturer(c *gin.Context) {
	var req models.CreateLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lecturer payload"))
		return
	}

	account, err := h.service.RegisterLecturer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, account)
}

// SetUploadPermission godoc
// @Summary Grant or revoke a student's upload permission
// @Description Lecturers toggle whether a student may submit resources
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student profile ID"
// @Param payload body object true "Permission payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accounts/students/{id}/upload-permission [put]
func (h *AccountHandler) SetUploadPermission(c *gin.Context) {
	var payload struct {
		CanUpload bool `json:"can_upload"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permission payload"))
		return
	}

	profile, err := h.service.SetUploadPermission(c.Request.Context(), c.Param("id"), payload.CanUpload, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile, nil)
}
