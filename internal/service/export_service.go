package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-retake-api/internal/dto"
	"github.com/noah-isme/academy-retake-api/internal/models"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
	"github.com/noah-isme/academy-retake-api/pkg/export"
)

// ExportFormat identifies a rendered export type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered export payload.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type exportRetakeLister interface {
	List(ctx context.Context, academyID string, filter models.RetakeFilter) ([]models.RetakeAssignmentDetail, *models.Pagination, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the filtered retake list as a downloadable file.
type ExportService struct {
	repo   exportRetakeLister
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

const exportPageSize = 5000

// NewExportService constructs an ExportService.
func NewExportService(repo exportRetakeLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{repo: repo, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Generate renders the assignments matching the query in the requested format.
func (s *ExportService) Generate(ctx context.Context, query dto.RetakeQuery, format ExportFormat, actor *models.JWTClaims) (*ExportResult, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	filter, err := buildRetakeFilter(query)
	if err != nil {
		return nil, err
	}
	filter.Page = 1
	filter.PageSize = exportPageSize

	assignments, _, err := s.repo.List(ctx, actor.AcademyID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load retakes for export")
	}

	dataset := buildRetakeDataset(assignments)
	title := fmt.Sprintf("Retake Assignments %s", s.now().UTC().Format(dto.DateLayout))

	var payload []byte
	var contentType, ext string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType, ext = "text/csv", "csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType, ext = "application/pdf", "pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("retakes_%s.%s", s.now().UTC().Format("20060102_150405"), ext)
	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildRetakeDataset(assignments []models.RetakeAssignmentDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(assignments))
	for _, a := range assignments {
		scheduled := ""
		if a.ScheduledDate != nil {
			scheduled = a.ScheduledDate.Format(dto.DateLayout)
		}
		management := ""
		if a.ManagementStatus != nil {
			management = *a.ManagementStatus
		}
		rows = append(rows, map[string]string{
			"Exam":              a.ExamTitle,
			"Course":            a.CourseName,
			"Student":           a.StudentName,
			"Status":            string(a.Status),
			"Management Status": management,
			"Scheduled Date":    scheduled,
			"Postponed":         fmt.Sprintf("%d", a.PostponeCount),
			"Absences":          fmt.Sprintf("%d", a.AbsentCount),
		})
	}
	return export.Dataset{
		Headers: []string{"Exam", "Course", "Student", "Status", "Management Status", "Scheduled Date", "Postponed", "Absences"},
		Rows:    rows,
	}
}
