package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"worklog/backend/internal/db"
	"worklog/backend/internal/repository"
	"worklog/backend/internal/uptime"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingBeater struct {
	calls atomic.Int32
	err   error
}

func (c *countingBeater) Update(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestScheduleEvery(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s, err := New(nil, quietLogger())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		id, err := s.ScheduleEvery("test", 10*time.Second, func(context.Context) {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := New(nil, quietLogger())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.ScheduleEvery("test", 0, func(context.Context) {})
		require.Error(t, err)
	})
}

func TestHeartbeatRuns(t *testing.T) {
	s, err := New(nil, quietLogger())
	require.NoError(t, err)

	beater := &countingBeater{}
	_, err = s.ScheduleHeartbeat(20*time.Millisecond, beater)
	require.NoError(t, err)
	s.Start()

	require.Eventually(t, func() bool { return beater.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestBeatToleratesErrors(t *testing.T) {
	s, err := New(nil, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	for _, beatErr := range []error{nil, uptime.ErrNotRecording, errors.New("disk full")} {
		beater := &countingBeater{err: beatErr}
		s.beat(context.Background(), beater)
		require.EqualValues(t, 1, beater.calls.Load())
	}
}

func TestBeatMovesShutdownForward(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "heartbeat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.Migrate(database, ""))

	repo := repository.NewUptimeRepository(database, nil)
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC))
	tracker := uptime.NewTracker(repo, nil, clock, time.UTC)
	require.NoError(t, tracker.Launch(ctx))

	s, err := New(clock, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	clock.Advance(5 * time.Minute)
	s.beat(ctx, tracker)

	current, ok := tracker.Current()
	require.True(t, ok)
	require.Equal(t, 5*time.Minute, current.Uptime())

	stored, err := repo.Get(ctx, current.ID)
	require.NoError(t, err)
	require.True(t, clock.Now().Equal(stored.Shutdown))
}
