package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushare/campushare-api/internal/models"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
	"github.com/campushare/campushare-api/pkg/storage"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type resourceStore interface {
	Create(ctx context.Context, resource *models.Resource) error
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, int, error)
	ListPending(ctx context.Context) ([]models.Resource, error)
	ApplyReview(ctx context.Context, id string, status models.ResourceStatus, reviewerID string, comments string, rejectionReason *string, reviewedAt time.Time) error
	RecordDownload(ctx context.Context, entry *models.ResourceDownload) error
}

type categoryFinder interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

type studentProfileFinder interface {
	FindStudentProfileByID(ctx context.Context, id string) (*models.StudentProfile, error)
}

type resourceFileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// ResourceUpload carries upload metadata and the stream reader.
type ResourceUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// ResourceDownload bundles the open file and metadata for streaming.
type ResourceDownload struct {
	File     *os.File
	Filename string
	MimeType string
	Size     int64
}

// ResourceServiceConfig holds upload validation parameters.
type ResourceServiceConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

// ResourceService implements the upload intake, the moderation state machine
// and the download accessor over the resource store.
type ResourceService struct {
	repo       resourceStore
	categories categoryFinder
	students   studentProfileFinder
	storage    resourceFileStorage
	audit      auditLogger
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ResourceServiceConfig
	extSet     map[string]struct{}
}

// NewResourceService constructs the service with defaults.
func NewResourceService(repo resourceStore, categories categoryFinder, students studentProfileFinder, store resourceFileStorage, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ResourceServiceConfig) *ResourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 25 * 1024 * 1024
	}
	extSet := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		extSet[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &ResourceService{
		repo:       repo,
		categories: categories,
		students:   students,
		storage:    store,
		audit:      audit,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		extSet:     extSet,
	}
}

// Submit records a new pending resource after persisting its artifact.
// Only students holding the upload permission may submit.
func (s *ResourceService) Submit(ctx context.Context, req models.SubmitResourceRequest, upload ResourceUpload, actor *models.JWTClaims) (*models.Resource, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students may upload resources")
	}

	profile, err := s.students.FindStudentProfileByID(ctx, actor.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	if !profile.Active || !profile.CanUpload {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "upload permission required")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	fileName, err := storage.SanitizeFilename(upload.Filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsafe file name")
	}
	fileType := storage.Extension(fileName)
	if fileType == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file has no extension")
	}
	if len(s.extSet) > 0 {
		if _, ok := s.extSet[fileType]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %q not allowed", fileType))
		}
	}

	category, err := s.categories.FindByID(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "category does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if !category.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category is inactive")
	}

	// The artifact lands on disk first so a committed metadata row always
	// references a durable file.
	storedName := storage.StoredName(fileName)
	path, err := s.storage.SaveStream(storedName, upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to persist uploaded file")
	}

	resource := &models.Resource{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		FilePath:    path,
		FileName:    fileName,
		FileType:    fileType,
		FileSize:    upload.Size,
		CategoryID:  category.ID,
		UploadedBy:  profile.ID,
	}
	if err := s.repo.Create(ctx, resource); err != nil {
		_ = s.storage.Delete(path)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource metadata")
	}

	s.metrics.RecordUpload()
	s.emitAudit(ctx, actor, models.AuditActionUpload, &resource.ID,
		fmt.Sprintf(`{"title":%q,"category_id":%q}`, resource.Title, resource.CategoryID))
	return resource, nil
}

// Review applies a moderation decision to a pending resource. Approved and
// rejected are terminal: a second decision on the same resource fails.
func (s *ResourceService) Review(ctx context.Context, resourceID string, req models.ReviewResourceRequest, actor *models.JWTClaims) (*models.Resource, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers may review resources")
	}
	if !req.Action.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown review action %q", req.Action))
	}

	resource, err := s.repo.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	if resource.Status != models.ResourceStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("resource is already %s", resource.Status))
	}

	status := models.ResourceStatusApproved
	var rejectionReason *string
	if req.Action == models.ReviewActionReject {
		status = models.ResourceStatusRejected
		reason := req.Comments
		rejectionReason = &reason
	}

	if err := s.repo.ApplyReview(ctx, resourceID, status, actor.ProfileID, req.Comments, rejectionReason, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the compare-and-swap against a concurrent reviewer.
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "resource was already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply review")
	}

	reviewed, err := s.repo.FindByID(ctx, resourceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload resource")
	}

	s.metrics.RecordReview(status)
	s.emitAudit(ctx, actor, models.AuditActionReview, &resourceID,
		fmt.Sprintf(`{"action":%q,"status":%q}`, req.Action, status))
	return reviewed, nil
}

// Download opens an approved resource for streaming, appending a ledger row
// and bumping the counter atomically. Unapproved resources are hidden even
// from their uploader.
func (s *ResourceService) Download(ctx context.Context, resourceID, ip string, actor *models.JWTClaims) (*ResourceDownload, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	resource, err := s.repo.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	if resource.Status != models.ResourceStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "resource is not available for download")
	}

	if err := s.repo.RecordDownload(ctx, &models.ResourceDownload{
		ResourceID: resource.ID,
		UserID:     actor.UserID,
		IPAddress:  ip,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record download")
	}

	file, err := s.storage.Open(resource.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to open resource file")
	}

	s.metrics.RecordDownload()
	s.emitAudit(ctx, actor, models.AuditActionDownload, &resource.ID, fmt.Sprintf(`{"ip":%q}`, ip))
	return &ResourceDownload{
		File:     file,
		Filename: resource.FileName,
		MimeType: mimeTypeFor(resource.FileType),
		Size:     resource.FileSize,
	}, nil
}

// Get returns a single resource. Unapproved resources are visible only to
// lecturers and to the uploading student.
func (s *ResourceService) Get(ctx context.Context, resourceID string, actor *models.JWTClaims) (*models.Resource, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	resource, err := s.repo.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	if resource.Status != models.ResourceStatusApproved &&
		actor.Role != models.RoleLecturer &&
		resource.UploadedBy != actor.ProfileID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}
	return resource, nil
}

// Browse runs the public catalog query. Callers without the lecturer role
// only ever see approved resources regardless of the requested status.
func (s *ResourceService) Browse(ctx context.Context, filter models.ResourceFilter, actor *models.JWTClaims) ([]models.Resource, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer || filter.Status == "" {
		filter.Status = models.ResourceStatusApproved
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", filter.Status))
	}
	return s.list(ctx, filter)
}

// ListMine returns the calling student's own uploads in every state.
func (s *ResourceService) ListMine(ctx context.Context, filter models.ResourceFilter, actor *models.JWTClaims) ([]models.Resource, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only students own uploads")
	}
	filter.UploaderID = actor.ProfileID
	filter.Status = ""
	return s.list(ctx, filter)
}

// PendingQueue returns the moderation queue for lecturers, oldest first.
func (s *ResourceService) PendingQueue(ctx context.Context, actor *models.JWTClaims) ([]models.Resource, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer {
		return nil, appErrors.ErrForbidden
	}
	resources, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending resources")
	}
	return resources, nil
}

// ReviewedByMe lists the resources the calling lecturer has decided on.
func (s *ResourceService) ReviewedByMe(ctx context.Context, filter models.ResourceFilter, actor *models.JWTClaims) ([]models.Resource, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer {
		return nil, nil, appErrors.ErrForbidden
	}
	filter.ReviewerID = actor.ProfileID
	filter.Status = ""
	return s.list(ctx, filter)
}

func (s *ResourceService) list(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	resources, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}
	return resources, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *ResourceService) emitAudit(ctx context.Context, actor *models.JWTClaims, action string, resourceID *string, payload string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "resource",
		ResourceID: resourceID,
		NewValues:  []byte(payload),
	}); err != nil {
		s.logger.Warn("failed to create resource audit log", zap.Error(err))
	}
}

func mimeTypeFor(fileType string) string {
	if fileType == "" {
		return "application/octet-stream"
	}
	if mt := mime.TypeByExtension("." + strings.ToLower(fileType)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
