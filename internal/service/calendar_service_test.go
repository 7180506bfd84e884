package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-retake-api/internal/models"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
)

type stubCalendarLister struct {
	assignments []models.RetakeAssignmentDetail
	lastFilter  models.RetakeFilter
}

func (s *stubCalendarLister) List(_ context.Context, _ string, filter models.RetakeFilter) ([]models.RetakeAssignmentDetail, *models.Pagination, error) {
	s.lastFilter = filter
	return s.assignments, &models.Pagination{Page: 1, PageSize: filter.PageSize, TotalCount: len(s.assignments)}, nil
}

func detailOn(id string, status models.RetakeStatus, year int, month, day int) models.RetakeAssignmentDetail {
	return models.RetakeAssignmentDetail{
		RetakeAssignment: models.RetakeAssignment{
			ID:            id,
			Status:        status,
			ScheduledDate: datePtr(year, time.Month(month), day),
		},
	}
}

func TestCalendarRangeBucketsByDate(t *testing.T) {
	lister := &stubCalendarLister{assignments: []models.RetakeAssignmentDetail{
		detailOn("ret-3", models.RetakeStatusAbsent, 2026, 9, 14),
		detailOn("ret-1", models.RetakeStatusPending, 2026, 9, 10),
		detailOn("ret-2", models.RetakeStatusCompleted, 2026, 9, 10),
		{RetakeAssignment: models.RetakeAssignment{ID: "ret-4", Status: models.RetakeStatusPending}},
	}}
	svc := NewCalendarService(lister, nil, nil, 0)

	days, err := svc.Range(context.Background(), "2026-09-01", "2026-09-30", testActor())
	require.NoError(t, err)
	require.Len(t, days, 2)

	require.Equal(t, "2026-09-10", days[0].Date)
	require.Equal(t, 2, days[0].Total)
	require.Equal(t, 1, days[0].PendingCount)
	require.Equal(t, 1, days[0].CompletedCount)
	require.Len(t, days[0].Assignments, 2)

	require.Equal(t, "2026-09-14", days[1].Date)
	require.Equal(t, 1, days[1].AbsentCount)

	require.Equal(t, calendarPageSize, lister.lastFilter.PageSize)
}

func TestCalendarRangeValidation(t *testing.T) {
	svc := NewCalendarService(&stubCalendarLister{}, nil, nil, 0)

	_, err := svc.Range(context.Background(), "not-a-date", "2026-09-30", testActor())
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = svc.Range(context.Background(), "2026-09-30", "2026-09-01", testActor())
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = svc.Range(context.Background(), "2026-01-01", "2026-12-31", testActor())
	requireAppError(t, err, appErrors.ErrValidation)
}
