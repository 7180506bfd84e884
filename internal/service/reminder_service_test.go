package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-retake-api/internal/models"
)

type stubReminderLister struct {
	reminders []models.RetakeReminder
	lastFrom  time.Time
	lastTo    time.Time
	lastLimit int
}

func (s *stubReminderLister) ListDue(_ context.Context, from, to time.Time, limit int) ([]models.RetakeReminder, error) {
	s.lastFrom = from
	s.lastTo = to
	s.lastLimit = limit
	return s.reminders, nil
}

type stubDispatcher struct {
	failFor   string
	delivered []string
}

func (d *stubDispatcher) Dispatch(_ context.Context, reminder models.RetakeReminder) error {
	if reminder.AssignmentID == d.failFor {
		return errors.New("recipient unreachable")
	}
	d.delivered = append(d.delivered, reminder.AssignmentID)
	return nil
}

func TestReminderRunOnceSkipsFailedDispatch(t *testing.T) {
	scheduled := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	lister := &stubReminderLister{reminders: []models.RetakeReminder{
		{AssignmentID: "ret-1", AcademyID: "acad-1", ScheduledDate: scheduled},
		{AssignmentID: "ret-2", AcademyID: "acad-1", ScheduledDate: scheduled},
		{AssignmentID: "ret-3", AcademyID: "acad-2", ScheduledDate: scheduled},
	}}
	dispatcher := &stubDispatcher{failFor: "ret-2"}
	svc := NewReminderService(lister, dispatcher, nil, 48*time.Hour, 10)
	svc.now = func() time.Time { return time.Date(2026, 9, 9, 15, 30, 0, 0, time.UTC) }

	delivered, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, delivered)
	require.Equal(t, []string{"ret-1", "ret-3"}, dispatcher.delivered)

	require.Equal(t, time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC), lister.lastFrom)
	require.Equal(t, time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC), lister.lastTo)
	require.Equal(t, 10, lister.lastLimit)
}

func TestReminderDefaults(t *testing.T) {
	svc := NewReminderService(&stubReminderLister{}, nil, nil, 0, 0)
	require.Equal(t, 24*time.Hour, svc.lookahead)
	require.Equal(t, 100, svc.batchSize)
	require.IsType(t, &LogDispatcher{}, svc.dispatcher)
}
