package uptime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"worklog/backend/internal/logfields"
	"worklog/backend/internal/metrics"
	"worklog/backend/internal/model"
)

var (
	ErrAlreadyRecording = errors.New("uptime already recording")
	ErrNotRecording     = errors.New("uptime not recording")
	ErrAlreadySleeping  = errors.New("system already sleeping")
	ErrNotSleeping      = errors.New("system not sleeping")
)

const (
	EventLaunch   = "launch"
	EventShutdown = "shutdown"
	EventSleep    = "sleep"
	EventWake     = "wake"
	EventUpdate   = "update"
)

type Store interface {
	Insert(ctx context.Context, record model.SystemUptimeRecord) (model.SystemUptimeRecord, error)
	Update(ctx context.Context, record model.SystemUptimeRecord) (model.SystemUptimeRecord, error)
}

// Tracker applies power events to a Session and persists every change. The heartbeat and the
// power monitor call it from different goroutines, so every operation holds the lock for its
// whole duration, store write included.
type Tracker struct {
	mu       sync.Mutex
	session  *Session
	store    Store
	clock    clockwork.Clock
	loc      *time.Location
	logger   *slog.Logger
	recorder metrics.Recorder
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(t *Tracker) {
		if r != nil {
			t.recorder = r
		}
	}
}

func NewTracker(store Store, session *Session, clock clockwork.Clock, loc *time.Location, opts ...Option) *Tracker {
	if session == nil {
		session = NewSession()
	}
	if loc == nil {
		loc = time.Local
	}
	t := &Tracker{
		session:  session,
		store:    store,
		clock:    clock,
		loc:      loc,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Current returns a copy of the open record.
func (t *Tracker) Current() (model.SystemUptimeRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Snapshot()
}

func (t *Tracker) Sleeping() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Sleeping()
}

func (t *Tracker) Launch(ctx context.Context) error {
	return t.run(EventLaunch, func(now time.Time) error {
		if t.session.Recording() {
			return ErrAlreadyRecording
		}
		return t.open(ctx, now, false)
	})
}

func (t *Tracker) Shutdown(ctx context.Context) error {
	return t.run(EventShutdown, func(now time.Time) error {
		if !t.session.Recording() {
			return ErrNotRecording
		}
		if err := t.closeCurrent(ctx, now); err != nil {
			return err
		}
		t.session.clear()
		return nil
	})
}

func (t *Tracker) Sleep(ctx context.Context) error {
	return t.run(EventSleep, func(now time.Time) error {
		if !t.session.Recording() {
			return ErrNotRecording
		}
		if t.session.Sleeping() {
			return ErrAlreadySleeping
		}

		next := t.session.Current.Clone()
		next.Shutdown = now
		next.SleepRecords = append(next.SleepRecords, model.SleepRecord{ID: uuid.New(), Start: now, End: now})
		if err := t.save(ctx, next); err != nil {
			return err
		}
		t.session.OpenSleep = len(next.SleepRecords) - 1
		return nil
	})
}

func (t *Tracker) Wake(ctx context.Context) error {
	return t.run(EventWake, func(now time.Time) error {
		if !t.session.Recording() {
			return ErrNotRecording
		}
		if !t.session.Sleeping() {
			return ErrNotSleeping
		}

		next := t.session.Current.Clone()
		next.Shutdown = now
		next.SleepRecords[t.session.OpenSleep].End = now
		if err := t.save(ctx, next); err != nil {
			return err
		}
		t.session.OpenSleep = -1
		return nil
	})
}

// Update is the heartbeat. It moves the last-seen timestamps to now and starts a new record
// when the calendar day has changed, carrying an open sleep across the boundary.
func (t *Tracker) Update(ctx context.Context) error {
	return t.run(EventUpdate, func(now time.Time) error {
		if !t.session.Recording() {
			return ErrNotRecording
		}

		if now.Day() == t.session.Current.Day && now.Month() == t.session.Current.Month && now.Year() == t.session.Current.Year {
			next := t.session.Current.Clone()
			next.Shutdown = now
			if t.session.Sleeping() {
				next.SleepRecords[t.session.OpenSleep].End = now
			}
			return t.save(ctx, next)
		}

		// The new day's record goes in first: if the store refuses it the session still holds
		// the old record and the next heartbeat retries the rollover.
		sleeping := t.session.Sleeping()
		closed := t.closed(now)
		if err := t.open(ctx, now, sleeping); err != nil {
			return err
		}
		if _, err := t.store.Update(ctx, closed); err != nil {
			t.logger.Warn("Closing the previous uptime record failed", logfields.RecordID(closed.ID), logfields.Error(err))
		}
		t.logger.Info("Uptime record rolled over to a new day", logfields.State(stateLabel(true, sleeping)))
		return nil
	})
}

func (t *Tracker) run(event string, fn func(now time.Time) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := fn(t.clock.Now().In(t.loc))
	t.recorder.IncUptimeEvent(event, metrics.Result(err == nil))
	t.recorder.SetUptimeSession(t.session.Recording(), t.session.Sleeping())
	if err != nil {
		t.logger.Warn("Uptime event rejected", logfields.Op(event), logfields.Error(err))
		return fmt.Errorf("%s: %w", event, err)
	}
	t.logger.Debug("Uptime event applied", logfields.Op(event),
		logfields.State(stateLabel(t.session.Recording(), t.session.Sleeping())))
	return nil
}

func (t *Tracker) open(ctx context.Context, now time.Time, sleeping bool) error {
	record := model.NewSystemUptimeRecord(uuid.New(), now)
	if sleeping {
		record.SleepRecords = []model.SleepRecord{{ID: uuid.New(), Start: now, End: now}}
	}

	stored, err := t.store.Insert(ctx, record)
	if err != nil {
		return err
	}
	t.session.Current = &stored
	t.session.OpenSleep = -1
	if sleeping {
		t.session.OpenSleep = 0
	}
	return nil
}

func (t *Tracker) closeCurrent(ctx context.Context, now time.Time) error {
	return t.save(ctx, t.closed(now))
}

// closed is the open record with its last-seen times moved to now.
func (t *Tracker) closed(now time.Time) model.SystemUptimeRecord {
	next := t.session.Current.Clone()
	next.Shutdown = now
	if t.session.Sleeping() {
		next.SleepRecords[t.session.OpenSleep].End = now
	}
	return next
}

// save persists next and, only once the store accepted it, makes it the open record.
func (t *Tracker) save(ctx context.Context, next model.SystemUptimeRecord) error {
	stored, err := t.store.Update(ctx, next)
	if err != nil {
		return err
	}
	t.session.Current = &stored
	return nil
}

func stateLabel(recording, sleeping bool) string {
	switch {
	case !recording:
		return "closed"
	case sleeping:
		return "sleeping"
	default:
		return "open"
	}
}
