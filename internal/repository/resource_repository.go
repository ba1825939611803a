package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushare/campushare-api/internal/models"
)

const resourceColumns = `id, title, description, file_path, file_name, file_type, file_size, upload_date,
       status, download_count, category_id, uploaded_by, reviewed_by, review_date, review_comments, rejection_reason`

// ResourceRepository persists resource metadata, the moderation transitions
// and the download ledger.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs a ResourceRepository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create stores metadata for a freshly uploaded resource in pending state.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	if resource.UploadDate.IsZero() {
		resource.UploadDate = time.Now().UTC()
	}
	resource.Status = models.ResourceStatusPending
	resource.DownloadCount = 0
	const query = `INSERT INTO resources
        (id, title, description, file_path, file_name, file_type, file_size, upload_date, status, download_count, category_id, uploaded_by)
        VALUES (:id, :title, :description, :file_path, :file_name, :file_type, :file_size, :upload_date, :status, :download_count, :category_id, :uploaded_by)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// FindByID retrieves one resource row.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE id = $1 LIMIT 1`, resourceColumns)
	var resource models.Resource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		return nil, err
	}
	return &resource, nil
}

// List returns resources matching the filter plus the total match count.
// Ordering is newest upload first with id as a deterministic tie-breaker.
func (r *ResourceRepository) List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, int, error) {
	base := "FROM resources"
	conditions := []string{"1=1"}
	args := make([]interface{}, 0, 5)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.UploaderID != "" {
		args = append(args, filter.UploaderID)
		conditions = append(conditions, fmt.Sprintf("uploaded_by = $%d", len(args)))
	}
	if filter.ReviewerID != "" {
		args = append(args, filter.ReviewerID)
		conditions = append(conditions, fmt.Sprintf("reviewed_by = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args), len(args)))
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY upload_date DESC, id ASC LIMIT %d OFFSET %d`,
		resourceColumns, base, size, offset)

	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", err)
	}
	return resources, total, nil
}

// ListPending returns the moderation queue, oldest upload first.
func (r *ResourceRepository) ListPending(ctx context.Context) ([]models.Resource, error) {
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE status = $1 ORDER BY upload_date ASC, id ASC`, resourceColumns)
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, models.ResourceStatusPending); err != nil {
		return nil, fmt.Errorf("list pending resources: %w", err)
	}
	return resources, nil
}

// ListReviewed returns every resource carrying a review decision, newest
// decision first. Used for moderation report exports.
func (r *ResourceRepository) ListReviewed(ctx context.Context) ([]models.Resource, error) {
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE status <> $1 ORDER BY review_date DESC, id ASC`, resourceColumns)
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, models.ResourceStatusPending); err != nil {
		return nil, fmt.Errorf("list reviewed resources: %w", err)
	}
	return resources, nil
}

// ApplyReview writes a moderation decision as a compare-and-swap on the
// pending status: of two concurrent reviewers exactly one sees a row update,
// the other gets sql.ErrNoRows and must not double-apply.
func (r *ResourceRepository) ApplyReview(ctx context.Context, id string, status models.ResourceStatus, reviewerID string, comments string, rejectionReason *string, reviewedAt time.Time) error {
	const query = `UPDATE resources
        SET status = $2, reviewed_by = $3, review_date = $4, review_comments = $5, rejection_reason = $6
        WHERE id = $1 AND status = $7`
	res, err := r.db.ExecContext(ctx, query, id, status, reviewerID, reviewedAt, comments, rejectionReason, models.ResourceStatusPending)
	if err != nil {
		return fmt.Errorf("apply review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check review rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordDownload appends a ledger row and bumps the counter in one
// transaction. The increment happens in the database, never as a
// read-modify-write in application code.
func (r *ResourceRepository) RecordDownload(ctx context.Context, entry *models.ResourceDownload) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.DownloadedAt.IsZero() {
		entry.DownloadedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const ledgerQuery = `INSERT INTO resource_downloads (id, resource_id, user_id, downloaded_at, ip_address)
        VALUES (:id, :resource_id, :user_id, :downloaded_at, :ip_address)`
	if _, err := tx.NamedExecContext(ctx, ledgerQuery, entry); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("append download ledger: %w", err)
	}

	const counterQuery = `UPDATE resources SET download_count = download_count + 1 WHERE id = $1`
	res, err := tx.ExecContext(ctx, counterQuery, entry.ResourceID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("increment download count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("check download count rows: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit download: %w", err)
	}
	return nil
}

// CountDownloads returns the number of ledger rows for one resource.
func (r *ResourceRepository) CountDownloads(ctx context.Context, resourceID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM resource_downloads WHERE resource_id = $1`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, resourceID); err != nil {
		return 0, fmt.Errorf("count downloads: %w", err)
	}
	return count, nil
}

// StatusCounts aggregates per-status resource counts and the download total.
func (r *ResourceRepository) StatusCounts(ctx context.Context) (*models.DashboardStats, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE status = 'pending') AS pending_count,
        COUNT(*) FILTER (WHERE status = 'approved') AS approved_count,
        COUNT(*) FILTER (WHERE status = 'rejected') AS rejected_count,
        COALESCE(SUM(download_count), 0) AS total_downloads
        FROM resources`
	var stats models.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("aggregate resource stats: %w", err)
	}
	return &stats, nil
}

// TopDownloaded lists the most downloaded approved resources.
func (r *ResourceRepository) TopDownloaded(ctx context.Context, limit int) ([]models.TopResource, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT id, title, category_id, download_count FROM resources
        WHERE status = $1 ORDER BY download_count DESC, id ASC LIMIT %d`, limit)
	var top []models.TopResource
	if err := r.db.SelectContext(ctx, &top, query, models.ResourceStatusApproved); err != nil {
		return nil, fmt.Errorf("list top downloads: %w", err)
	}
	return top, nil
}
