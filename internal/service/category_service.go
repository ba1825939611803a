package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushare/campushare-api/internal/models"
	"github.com/campushare/campushare-api/internal/repository"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
)

type categoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id string) (*models.Category, error)
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) (int64, error)
}

// CategoryService manages the category vocabulary.
type CategoryService struct {
	repo      categoryStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs a CategoryService instance.
func NewCategoryService(repo categoryStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CategoryService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns the vocabulary, optionally only active entries.
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	categories, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Create adds a new active category. Lecturer-only.
func (s *CategoryService) Create(ctx context.Context, req models.CreateCategoryRequest, actor *models.JWTClaims) (*models.Category, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}

	category := &models.Category{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Active:      true,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("category %q already exists", name))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	return category, nil
}

// Update changes description or active flag. Lecturer-only.
func (s *CategoryService) Update(ctx context.Context, id string, req models.UpdateCategoryRequest, actor *models.JWTClaims) (*models.Category, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	if req.Description != nil {
		category.Description = strings.TrimSpace(*req.Description)
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	return category, nil
}

// Delete removes a category together with every resource attached to it and
// returns the destroyed resource count. Lecturer-only and irreversible.
func (s *CategoryService) Delete(ctx context.Context, id string, actor *models.JWTClaims) (int64, error) {
	if actor == nil {
		return 0, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer {
		return 0, appErrors.ErrForbidden
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionCategoryDelete,
			Resource:   "category",
			ResourceID: &id,
			NewValues:  []byte(fmt.Sprintf(`{"resources_removed":%d}`, removed)),
		}); err != nil {
			s.logger.Warn("failed to record category delete audit log", zap.Error(err))
		}
	}
	return removed, nil
}
