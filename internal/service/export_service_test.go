package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campushare/campushare-api/internal/models"
	"github.com/campushare/campushare-api/pkg/storage"
)

type reviewedListerStub struct {
	resources []models.Resource
}

func (s reviewedListerStub) ListReviewed(ctx context.Context) ([]models.Resource, error) {
	return s.resources, nil
}

func reviewedFixtures() []models.Resource {
	reviewer := "lect-1"
	reviewedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return []models.Resource{
		{ID: "res-1", Title: "Graph Algorithms", CategoryID: "cat-1", Status: models.ResourceStatusApproved, UploadedBy: "stud-1", ReviewedBy: &reviewer, ReviewDate: &reviewedAt, DownloadCount: 12},
		{ID: "res-2", Title: "Old Syllabus", CategoryID: "cat-2", Status: models.ResourceStatusRejected, UploadedBy: "stud-2", ReviewedBy: &reviewer, ReviewDate: &reviewedAt},
	}
}

func newTestExportService(store *storageStub) *ExportService {
	signer := storage.NewSignedURLSigner("report-test-secret", time.Minute)
	return NewExportService(reviewedListerStub{resources: reviewedFixtures()}, store, signer, nil)
}

func TestExportServiceModerationReportCSV(t *testing.T) {
	store := newStorageStub()
	svc := newTestExportService(store)

	report, err := svc.ModerationReport(context.Background(), ReportFormatCSV, lecturerClaims("lect-1"))
	require.NoError(t, err)
	require.Equal(t, ReportFormatCSV, report.Format)
	require.Equal(t, 2, report.RowCount)
	require.NotEmpty(t, report.Token)
	require.True(t, report.ExpiresAt.After(time.Now()))

	require.Len(t, store.saved, 1)
	for _, data := range store.saved {
		body := string(data)
		require.Contains(t, body, "Graph Algorithms")
		require.Contains(t, body, "rejected")
	}
}

func TestExportServiceModerationReportPDF(t *testing.T) {
	store := newStorageStub()
	svc := newTestExportService(store)

	report, err := svc.ModerationReport(context.Background(), ReportFormatPDF, lecturerClaims("lect-1"))
	require.NoError(t, err)
	require.Equal(t, ReportFormatPDF, report.Format)

	for _, data := range store.saved {
		require.True(t, strings.HasPrefix(string(data), "%PDF"))
	}
}

func TestExportServiceModerationReportGuards(t *testing.T) {
	svc := newTestExportService(newStorageStub())

	_, err := svc.ModerationReport(context.Background(), ReportFormatCSV, studentClaims("stud-1"))
	require.Equal(t, "FORBIDDEN", errorCode(t, err))

	_, err = svc.ModerationReport(context.Background(), "xlsx", lecturerClaims("lect-1"))
	require.Equal(t, "VALIDATION_ERROR", errorCode(t, err))
}

func TestExportServiceFetchReportRoundTrip(t *testing.T) {
	store := newStorageStub()
	svc := newTestExportService(store)

	report, err := svc.ModerationReport(context.Background(), ReportFormatCSV, lecturerClaims("lect-1"))
	require.NoError(t, err)

	download, err := svc.FetchReport(context.Background(), report.Token)
	require.NoError(t, err)
	defer download.File.Close()

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	require.Contains(t, string(body), "Graph Algorithms")

	_, err = svc.FetchReport(context.Background(), report.Token+"x")
	require.Equal(t, "FORBIDDEN", errorCode(t, err))
}
