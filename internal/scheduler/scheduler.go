package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"worklog/backend/internal/logfields"
	"worklog/backend/internal/uptime"
)

const heartbeatJob = "uptime-heartbeat"

// Beater is the part of the uptime tracker the heartbeat drives.
type Beater interface {
	Update(ctx context.Context) error
}

// Scheduler wraps gocron for the server's periodic work.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(clock clockwork.Clock, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []gocron.SchedulerOption{gocron.WithLogger(logger)}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}

	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{scheduler: s, logger: logger, ctx: ctx, cancel: cancel}, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs fn every interval. A run still in progress when the next one is due
// pushes the next one back.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, fn func(ctx context.Context)) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval for %s must be positive, got %s", name, interval)
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { fn(s.ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create %s job: %w", name, err)
	}
	return job.ID().String(), nil
}

// ScheduleHeartbeat moves the open uptime record's last-seen time forward every interval, so
// a crash loses at most one interval of uptime.
func (s *Scheduler) ScheduleHeartbeat(interval time.Duration, beater Beater) (string, error) {
	return s.ScheduleEvery(heartbeatJob, interval, func(ctx context.Context) {
		s.beat(ctx, beater)
	})
}

func (s *Scheduler) beat(ctx context.Context, beater Beater) {
	err := beater.Update(ctx)
	switch {
	case err == nil:
		s.logger.Debug("Heartbeat recorded", logfields.Job(heartbeatJob))
	case errors.Is(err, uptime.ErrNotRecording):
		s.logger.Debug("Heartbeat skipped, no open uptime record", logfields.Job(heartbeatJob))
	default:
		s.logger.Error("Heartbeat failed", logfields.Job(heartbeatJob), logfields.Error(err))
	}
}
