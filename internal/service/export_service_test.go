package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-retake-api/internal/dto"
	"github.com/noah-isme/academy-retake-api/internal/models"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
)

func TestExportGenerateCSV(t *testing.T) {
	management := "BILLED"
	lister := &stubCalendarLister{assignments: []models.RetakeAssignmentDetail{
		{
			RetakeAssignment: models.RetakeAssignment{
				Status:           models.RetakeStatusPending,
				ManagementStatus: &management,
				ScheduledDate:    datePtr(2026, time.September, 10),
				PostponeCount:    2,
			},
			ExamTitle:   "Algebra Midterm",
			CourseName:  "Algebra",
			StudentName: "Dana Kim",
		},
	}}
	svc := NewExportService(lister, nil, nil, nil)

	result, err := svc.Generate(context.Background(), dto.RetakeQuery{}, ExportFormatCSV, testActor())
	require.NoError(t, err)
	require.Equal(t, "text/csv", result.ContentType)
	require.True(t, strings.HasPrefix(result.Filename, "retakes_"))
	require.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	require.Contains(t, body, "Exam,Course,Student,Status,Management Status,Scheduled Date,Postponed,Absences")
	require.Contains(t, body, "Algebra Midterm,Algebra,Dana Kim,PENDING,BILLED,2026-09-10,2,0")
	require.Equal(t, exportPageSize, lister.lastFilter.PageSize)
}

func TestExportGeneratePDF(t *testing.T) {
	lister := &stubCalendarLister{assignments: []models.RetakeAssignmentDetail{
		{
			RetakeAssignment: models.RetakeAssignment{Status: models.RetakeStatusCompleted},
			ExamTitle:        "Physics Final",
			CourseName:       "Physics",
			StudentName:      "Min Lee",
		},
	}}
	svc := NewExportService(lister, nil, nil, nil)

	result, err := svc.Generate(context.Background(), dto.RetakeQuery{}, ExportFormatPDF, testActor())
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	require.NotEmpty(t, result.Payload)
}

func TestExportGenerateRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&stubCalendarLister{}, nil, nil, nil)
	_, err := svc.Generate(context.Background(), dto.RetakeQuery{}, ExportFormat("xlsx"), testActor())
	requireAppError(t, err, appErrors.ErrValidation)
}
