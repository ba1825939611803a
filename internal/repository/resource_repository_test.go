package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushare/campushare-api/internal/models"
)

func newResourceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func resourceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "file_path", "file_name", "file_type", "file_size", "upload_date",
		"status", "download_count", "category_id", "uploaded_by", "reviewed_by", "review_date", "review_comments", "rejection_reason",
	})
}

func TestResourceRepositoryCreateForcesPending(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resources")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	resource := &models.Resource{
		Title:         "Lecture Notes",
		FilePath:      "/uploads/resource_1.pdf",
		FileName:      "notes.pdf",
		FileType:      "pdf",
		FileSize:      2048,
		CategoryID:    "cat-1",
		UploadedBy:    "student-1",
		Status:        models.ResourceStatusApproved,
		DownloadCount: 99,
	}
	require.NoError(t, repo.Create(context.Background(), resource))

	require.NotEmpty(t, resource.ID)
	require.Equal(t, models.ResourceStatusPending, resource.Status)
	require.Zero(t, resource.DownloadCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryApplyReview(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources")).
		WithArgs("res-1", models.ResourceStatusApproved, "lect-1", sqlmock.AnyArg(), "looks good", nil, models.ResourceStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ApplyReview(context.Background(), "res-1", models.ResourceStatusApproved, "lect-1", "looks good", nil, now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryApplyReviewAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	reason := "off topic"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources")).
		WithArgs("res-1", models.ResourceStatusRejected, "lect-2", sqlmock.AnyArg(), reason, &reason, models.ResourceStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyReview(context.Background(), "res-1", models.ResourceStatusRejected, "lect-2", reason, &reason, time.Now().UTC())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryRecordDownload(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resource_downloads")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources SET download_count = download_count + 1")).
		WithArgs("res-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry := &models.ResourceDownload{
		ResourceID: "res-1",
		UserID:     "user-1",
		IPAddress:  "10.0.0.1",
	}
	require.NoError(t, repo.RecordDownload(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.DownloadedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryRecordDownloadMissingResource(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resource_downloads")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources SET download_count = download_count + 1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.RecordDownload(context.Background(), &models.ResourceDownload{
		ResourceID: "gone",
		UserID:     "user-1",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	now := time.Now()

	rows := resourceRows().
		AddRow("res-1", "Algorithms Notes", "intro", "/uploads/a.pdf", "a.pdf", "pdf", 100, now,
			"approved", 3, "cat-1", "student-1", nil, nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY upload_date DESC, id ASC LIMIT 100 OFFSET 0")).
		WithArgs(models.ResourceStatusApproved, "%algo%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM resources")).
		WithArgs(models.ResourceStatusApproved, "%algo%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	resources, total, err := repo.List(context.Background(), models.ResourceFilter{
		Status:   models.ResourceStatusApproved,
		Search:   "Algo",
		Page:     0,
		PageSize: 500,
	})
	require.NoError(t, err)
	require.Len(t, resources, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "res-1", resources[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListPendingOldestFirst(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	now := time.Now()

	rows := resourceRows().
		AddRow("res-old", "First", "", "/uploads/1.pdf", "1.pdf", "pdf", 10, now.Add(-time.Hour),
			"pending", 0, "cat-1", "student-1", nil, nil, nil, nil).
		AddRow("res-new", "Second", "", "/uploads/2.pdf", "2.pdf", "pdf", 20, now,
			"pending", 0, "cat-1", "student-2", nil, nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY upload_date ASC, id ASC")).
		WithArgs(models.ResourceStatusPending).
		WillReturnRows(rows)

	resources, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 2)
	require.Equal(t, "res-old", resources[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryStatusCounts(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)

	rows := sqlmock.NewRows([]string{"pending_count", "approved_count", "rejected_count", "total_downloads"}).
		AddRow(2, 5, 1, 40)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status = 'pending')")).
		WillReturnRows(rows)

	stats, err := repo.StatusCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.PendingCount)
	require.Equal(t, 5, stats.ApprovedCount)
	require.Equal(t, 1, stats.RejectedCount)
	require.EqualValues(t, 40, stats.TotalDownloads)
	require.NoError(t, mock.ExpectationsWereMet())
}
