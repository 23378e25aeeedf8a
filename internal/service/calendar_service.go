package service

import (
	"context"
	"log/slog"
	"time"

	"worklog/backend/internal/calendar"
	apperrors "worklog/backend/internal/errors"
	"worklog/backend/internal/logfields"
	"worklog/backend/internal/notify"
	"worklog/backend/internal/timeutil"
)

// HolidaySource yields the current holiday set; it may change between calls.
type HolidaySource interface {
	Holidays() timeutil.Holidays
}

type CalendarService struct {
	records  calendar.TimeRecordSource
	uptimes  calendar.UptimeSource
	notifier *notify.Broadcaster
	holidays HolidaySource
	loc      *time.Location
	logger   *slog.Logger
}

func NewCalendarService(records calendar.TimeRecordSource, uptimes calendar.UptimeSource, notifier *notify.Broadcaster, holidays HolidaySource, loc *time.Location, logger *slog.Logger) *CalendarService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarService{records: records, uptimes: uptimes, notifier: notifier, holidays: holidays, loc: loc, logger: logger}
}

func (s *CalendarService) Month(ctx context.Context, year int, month time.Month) (*calendar.Summary, *apperrors.APIError) {
	days, err := calendar.Month(ctx, s.records, s.uptimes, year, month, s.loc)
	if err != nil {
		s.logger.Error("Calendar aggregation failed", logfields.Year(year), logfields.Month(month), logfields.Error(err))
		return nil, apperrors.Internal("failed to aggregate calendar")
	}
	summary := calendar.Summarize(days, s.holidays.Holidays())
	return &summary, nil
}

// Watch streams a fresh summary after every stored change until ctx ends.
func (s *CalendarService) Watch(ctx context.Context, year int, month time.Month) <-chan calendar.Summary {
	feed := calendar.NewFeed(s.records, s.uptimes, s.notifier, s.loc, s.logger)
	updates := feed.Watch(ctx, year, month)

	out := make(chan calendar.Summary)
	go func() {
		defer close(out)
		defer feed.Close()
		for days := range updates {
			select {
			case out <- calendar.Summarize(days, s.holidays.Holidays()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
