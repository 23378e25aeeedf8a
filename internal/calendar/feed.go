package calendar

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"worklog/backend/internal/logfields"
	"worklog/backend/internal/model"
	"worklog/backend/internal/notify"
)

// Feed republishes a month's aggregate whenever the store signals a change. Only one month
// is watched at a time; watching another cancels the previous subscription.
type Feed struct {
	records  TimeRecordSource
	uptimes  UptimeSource
	notifier *notify.Broadcaster
	loc      *time.Location
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewFeed(records TimeRecordSource, uptimes UptimeSource, notifier *notify.Broadcaster, loc *time.Location, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{records: records, uptimes: uptimes, notifier: notifier, loc: loc, logger: logger}
}

// Watch emits the current aggregate, then a fresh one after every change notification, until
// ctx ends, Close is called or Watch is called again. The channel is closed when the
// subscription ends. Consumers may see the same snapshot more than once.
func (f *Feed) Watch(ctx context.Context, year int, month time.Month) <-chan []model.CalendarRecord {
	f.mu.Lock()
	f.stopLocked()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	f.cancel = cancel
	f.done = done
	signals, unsubscribe := f.notifier.Subscribe()
	f.mu.Unlock()

	out := make(chan []model.CalendarRecord)
	go func() {
		defer close(done)
		defer close(out)
		defer unsubscribe()

		if !f.publish(ctx, out, year, month) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				if !f.publish(ctx, out, year, month) {
					return
				}
			}
		}
	}()
	return out
}

// Close ends the active subscription and waits for its goroutine to exit.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopLocked()
}

func (f *Feed) stopLocked() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
	f.cancel = nil
	f.done = nil
}

// publish reports false once the subscription is over.
func (f *Feed) publish(ctx context.Context, out chan<- []model.CalendarRecord, year int, month time.Month) bool {
	days, err := Month(ctx, f.records, f.uptimes, year, month, f.loc)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		f.logger.Warn("Calendar refresh failed", logfields.Year(year), logfields.Month(month), logfields.Error(err))
		return true
	}

	select {
	case out <- days:
		return true
	case <-ctx.Done():
		return false
	}
}
