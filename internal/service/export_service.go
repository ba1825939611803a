package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushare/campushare-api/internal/models"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
	"github.com/campushare/campushare-api/pkg/export"
	"github.com/campushare/campushare-api/pkg/storage"
)

// Report formats accepted by the moderation report endpoint.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

type reviewedLister interface {
	ListReviewed(ctx context.Context) ([]models.Resource, error)
}

type tokenSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string) (exportID, relPath string, expiresAt time.Time, err error)
}

// ReportFile is a rendered report stored on disk and addressed by token.
type ReportFile struct {
	ExportID  string    `json:"export_id"`
	Format    string    `json:"format"`
	RowCount  int       `json:"row_count"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService renders the moderation history into downloadable report
// files. Reports are served back through short-lived signed tokens, never
// through the resource download path.
type ExportService struct {
	repo    reviewedLister
	storage resourceFileStorage
	signer  tokenSigner
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(repo reviewedLister, store resourceFileStorage, signer tokenSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:    repo,
		storage: store,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// ModerationReport renders the reviewed-resource history in the requested
// format and returns a signed token for retrieving the file.
func (s *ExportService) ModerationReport(ctx context.Context, format string, actor *models.JWTClaims) (*ReportFile, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reports are restricted to lecturers")
	}
	if format != ReportFormatCSV && format != ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}

	resources, err := s.repo.ListReviewed(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load moderation history")
	}

	dataset := moderationDataset(resources)
	var rendered []byte
	switch format {
	case ReportFormatCSV:
		rendered, err = s.csv.Render(dataset)
	case ReportFormatPDF:
		rendered, err = s.pdf.Render(dataset, "Moderation Report")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	exportID := uuid.NewString()
	fileName := fmt.Sprintf("moderation_%s_%s.%s", time.Now().UTC().Format("20060102T150405"), exportID[:8], format)
	path, err := s.storage.SaveStream(fileName, bytes.NewReader(rendered))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store report file")
	}

	token, expiresAt, err := s.signer.Generate(exportID, path)
	if err != nil {
		_ = s.storage.Delete(path)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report token")
	}

	s.logger.Info("moderation report generated",
		zap.String("export_id", exportID),
		zap.String("format", format),
		zap.Int("rows", len(dataset.Rows)))

	return &ReportFile{
		ExportID:  exportID,
		Format:    format,
		RowCount:  len(dataset.Rows),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// FetchReport resolves a signed token back to the stored report file.
func (s *ExportService) FetchReport(ctx context.Context, token string) (*ResourceDownload, error) {
	_, path, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired report token")
	}
	file, err := s.storage.Open(path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to open report file")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to stat report file")
	}
	return &ResourceDownload{
		File:     file,
		Filename: info.Name(),
		MimeType: mimeTypeFor(storage.Extension(info.Name())),
		Size:     info.Size(),
	}, nil
}

func moderationDataset(resources []models.Resource) export.Dataset {
	headers := []string{"ID", "Title", "Category", "Status", "Uploaded By", "Reviewed By", "Review Date", "Downloads"}
	rows := make([]map[string]string, 0, len(resources))
	for _, r := range resources {
		row := map[string]string{
			"ID":          r.ID,
			"Title":       r.Title,
			"Category":    r.CategoryID,
			"Status":      string(r.Status),
			"Uploaded By": r.UploadedBy,
			"Downloads":   strconv.FormatInt(r.DownloadCount, 10),
		}
		if r.ReviewedBy != nil {
			row["Reviewed By"] = *r.ReviewedBy
		}
		if r.ReviewDate != nil {
			row["Review Date"] = r.ReviewDate.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
