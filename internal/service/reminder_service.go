package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-retake-api/internal/models"
)

type reminderLister interface {
	ListDue(ctx context.Context, from, to time.Time, limit int) ([]models.RetakeReminder, error)
}

// ReminderDispatcher delivers one reminder. Implementations can send SMS or
// push notifications; the default only logs.
type ReminderDispatcher interface {
	Dispatch(ctx context.Context, reminder models.RetakeReminder) error
}

// LogDispatcher writes reminders to the application log.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher constructs the default dispatcher.
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the reminder.
func (d *LogDispatcher) Dispatch(_ context.Context, reminder models.RetakeReminder) error {
	d.logger.Info("retake reminder due",
		zap.String("assignment_id", reminder.AssignmentID),
		zap.String("academy_id", reminder.AcademyID),
		zap.String("exam", reminder.ExamTitle),
		zap.String("student", reminder.StudentName),
		zap.String("scheduled_date", reminder.ScheduledDate.Format("2006-01-02")))
	return nil
}

// ReminderService periodically dispatches reminders for pending retakes whose
// scheduled date falls inside the lookahead window.
type ReminderService struct {
	repo       reminderLister
	dispatcher ReminderDispatcher
	logger     *zap.Logger
	lookahead  time.Duration
	batchSize  int
	now        func() time.Time
}

// NewReminderService constructs the service.
func NewReminderService(repo reminderLister, dispatcher ReminderDispatcher, logger *zap.Logger, lookahead time.Duration, batchSize int) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = NewLogDispatcher(logger)
	}
	if lookahead <= 0 {
		lookahead = 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ReminderService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		lookahead:  lookahead,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// RunOnce dispatches one batch and returns the number delivered. A failed
// dispatch is logged and skipped so one bad recipient never blocks the batch.
func (s *ReminderService) RunOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(s.lookahead)

	reminders, err := s.repo.ListDue(ctx, from, to, s.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, reminder := range reminders {
		if err := s.dispatcher.Dispatch(ctx, reminder); err != nil {
			s.logger.Warn("reminder dispatch failed",
				zap.String("assignment_id", reminder.AssignmentID),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered, nil
}

// Start launches the reminder loop. It stops when ctx is cancelled.
func (s *ReminderService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if count, err := s.RunOnce(ctx); err != nil {
					s.logger.Error("reminder run failed", zap.Error(err))
				} else if count > 0 {
					s.logger.Info("reminders dispatched", zap.Int("count", count))
				}
			}
		}
	}()
}
