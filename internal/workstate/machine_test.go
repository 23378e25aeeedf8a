package workstate_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"worklog/backend/internal/db"
	"worklog/backend/internal/model"
	"worklog/backend/internal/repository"
	"worklog/backend/internal/workstate"
)

func setup(t *testing.T, start time.Time) (*workstate.Machine, *repository.TimeRecordRepository, *clockwork.FakeClock) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "workstate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.Migrate(database, ""))

	repo := repository.NewTimeRecordRepository(database, nil)
	clock := clockwork.NewFakeClockAt(start)
	return workstate.NewMachine(repo, clock, time.UTC, nil), repo, clock
}

func TestWorkdayScenario(t *testing.T) {
	ctx := context.Background()
	machine, repo, clock := setup(t, time.Date(2025, time.December, 4, 9, 0, 0, 0, time.UTC))

	state, err := machine.State(ctx)
	require.NoError(t, err)
	require.Equal(t, model.OffWork, state)

	state, err = machine.CheckIn(ctx)
	require.NoError(t, err)
	require.Equal(t, model.AtWork, state)

	clock.Advance(3 * time.Hour)
	state, err = machine.StartBreak(ctx)
	require.NoError(t, err)
	require.Equal(t, model.AtBreak, state)

	clock.Advance(30 * time.Minute)
	state, err = machine.EndBreak(ctx)
	require.NoError(t, err)
	require.Equal(t, model.AtWork, state)

	clock.Advance(5*time.Hour + 30*time.Minute)
	state, err = machine.CheckOut(ctx)
	require.NoError(t, err)
	require.Equal(t, model.OffWork, state)

	records, err := repo.RecordsForMonth(ctx, 2025, time.December)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 8*time.Hour+30*time.Minute, records[0].TimeWorked())
	require.Len(t, records[0].BreakTimes, 1)
	require.True(t, records[0].IndexConsistent())
}

func TestPreconditionViolationsLeaveStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	machine, repo, clock := setup(t, time.Date(2025, time.December, 4, 9, 0, 0, 0, time.UTC))

	cases := []struct {
		name string
		op   func(context.Context) (model.WorkState, error)
		want model.WorkState
	}{
		{"check out while off work", machine.CheckOut, model.AtWork},
		{"start break while off work", machine.StartBreak, model.AtWork},
		{"end break while off work", machine.EndBreak, model.AtBreak},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.op(ctx)
			require.ErrorIs(t, err, workstate.ErrStateMismatch)

			var mismatch *workstate.MismatchError
			require.True(t, errors.As(err, &mismatch))
			require.Equal(t, tc.want, mismatch.Want)
			require.Equal(t, model.OffWork, mismatch.Got)
		})
	}

	records, err := repo.RecordsForMonth(ctx, 2025, time.December)
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = machine.CheckIn(ctx)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = machine.CheckIn(ctx)
	require.ErrorIs(t, err, workstate.ErrStateMismatch)

	_, err = machine.StartBreak(ctx)
	require.NoError(t, err)
	_, err = machine.StartBreak(ctx)
	require.ErrorIs(t, err, workstate.ErrStateMismatch)
	_, err = machine.CheckOut(ctx)
	require.ErrorIs(t, err, workstate.ErrStateMismatch)

	records, err = repo.RecordsForMonth(ctx, 2025, time.December)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].BreakTimes, 1)
	require.Nil(t, records[0].CheckOut)
}

func TestSecondShiftSameDay(t *testing.T) {
	ctx := context.Background()
	machine, repo, clock := setup(t, time.Date(2025, time.December, 4, 9, 0, 0, 0, time.UTC))

	steps := []struct {
		advance time.Duration
		op      func(context.Context) (model.WorkState, error)
	}{
		{0, machine.CheckIn},
		{3 * time.Hour, machine.CheckOut},
		{time.Hour, machine.CheckIn},
		{4 * time.Hour, machine.CheckOut},
	}
	for _, step := range steps {
		clock.Advance(step.advance)
		_, err := step.op(ctx)
		require.NoError(t, err)
	}

	records, err := repo.RecordsForMonth(ctx, 2025, time.December)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 7*time.Hour, records[0].TimeWorked()+records[1].TimeWorked())

	state, err := machine.State(ctx)
	require.NoError(t, err)
	require.Equal(t, model.OffWork, state)
}
