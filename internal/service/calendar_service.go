package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-retake-api/internal/dto"
	"github.com/noah-isme/academy-retake-api/internal/models"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
)

type calendarRetakeLister interface {
	List(ctx context.Context, academyID string, filter models.RetakeFilter) ([]models.RetakeAssignmentDetail, *models.Pagination, error)
}

// CalendarService renders a date-bucketed view of scheduled retakes. Ranges
// are capped because the view is meant for week or month grids, not exports.
type CalendarService struct {
	repo     calendarRetakeLister
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
}

const calendarMaxRangeDays = 62

// NewCalendarService constructs the service.
func NewCalendarService(repo calendarRetakeLister, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{repo: repo, cache: cache, logger: logger, cacheTTL: cacheTTL}
}

// Range returns one bucket per date that has at least one retake scheduled
// inside [from, to], inclusive.
func (s *CalendarService) Range(ctx context.Context, fromRaw, toRaw string, actor *models.JWTClaims) ([]models.RetakeCalendarDay, error) {
	from, err := dto.ParseDate(fromRaw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
	}
	to, err := dto.ParseDate(toRaw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be on or after from")
	}
	if to.Sub(from) > calendarMaxRangeDays*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range cannot exceed %d days", calendarMaxRangeDays))
	}

	key := fmt.Sprintf("calendar:%s:%s:%s", actor.AcademyID, fromRaw, toRaw)
	var days []models.RetakeCalendarDay
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &days); err == nil && hit {
			return days, nil
		}
	}

	filter := models.RetakeFilter{
		From:     &from,
		To:       &to,
		Page:     1,
		PageSize: calendarPageSize,
	}
	assignments, _, err := s.repo.List(ctx, actor.AcademyID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar retakes")
	}

	days = bucketByDate(assignments)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, days, s.cacheTTL); err != nil {
			s.logger.Debug("calendar cache write failed", zap.Error(err))
		}
	}
	return days, nil
}

const calendarPageSize = 1000

func bucketByDate(assignments []models.RetakeAssignmentDetail) []models.RetakeCalendarDay {
	buckets := make(map[string]*models.RetakeCalendarDay)
	for _, a := range assignments {
		if a.ScheduledDate == nil {
			continue
		}
		date := a.ScheduledDate.Format(dto.DateLayout)
		day, ok := buckets[date]
		if !ok {
			day = &models.RetakeCalendarDay{Date: date}
			buckets[date] = day
		}
		day.Total++
		switch a.Status {
		case models.RetakeStatusPending:
			day.PendingCount++
		case models.RetakeStatusCompleted:
			day.CompletedCount++
		case models.RetakeStatusAbsent:
			day.AbsentCount++
		}
		day.Assignments = append(day.Assignments, a)
	}

	days := make([]models.RetakeCalendarDay, 0, len(buckets))
	for _, day := range buckets {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
