package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"worklog/backend/internal/db"
	"worklog/backend/internal/model"
	"worklog/backend/internal/notify"
	"worklog/backend/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})
	require.NoError(t, db.Migrate(database, ""))
	return database
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.December, day, hour, minute, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestTimeRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTimeRecordRepository(openTestDB(t), nil)

	rec := model.NewTimeRecord(uuid.New(), at(4, 9, 0))
	rec.BreakTimes = []model.BreakTime{
		{ID: uuid.New(), Start: ptr(at(4, 12, 0)), End: ptr(at(4, 12, 30))},
		{ID: uuid.New(), Start: ptr(at(4, 15, 0))},
	}
	_, err := repo.Insert(ctx, rec)
	require.NoError(t, err)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, rec.Equal(got), "stored %+v, read %+v", rec, got)

	_, err = repo.Get(ctx, uuid.New())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordsForMonthOrderingAndScope(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTimeRecordRepository(openTestDB(t), nil)

	later := model.NewTimeRecord(uuid.New(), at(5, 9, 0))
	earlier := model.NewTimeRecord(uuid.New(), at(4, 9, 0))
	earlier.BreakTimes = []model.BreakTime{{ID: uuid.New(), Start: ptr(at(4, 12, 0))}}
	other := model.NewTimeRecord(uuid.New(), time.Date(2025, time.November, 30, 9, 0, 0, 0, time.UTC))

	for _, rec := range []model.TimeRecord{later, earlier, other} {
		_, err := repo.Insert(ctx, rec)
		require.NoError(t, err)
	}

	records, err := repo.RecordsForMonth(ctx, 2025, time.December)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, earlier.ID, records[0].ID)
	require.Equal(t, later.ID, records[1].ID)
	require.Len(t, records[0].BreakTimes, 1)
	require.Empty(t, records[1].BreakTimes)
}

func TestUpdateReplacesBreakCollection(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTimeRecordRepository(openTestDB(t), nil)

	keep := model.BreakTime{ID: uuid.New(), Start: ptr(at(4, 10, 0)), End: ptr(at(4, 10, 15))}
	drop := model.BreakTime{ID: uuid.New(), Start: ptr(at(4, 12, 0)), End: ptr(at(4, 12, 30))}
	rec := model.NewTimeRecord(uuid.New(), at(4, 9, 0))
	rec.BreakTimes = []model.BreakTime{keep, drop}
	_, err := repo.Insert(ctx, rec)
	require.NoError(t, err)

	added := model.BreakTime{ID: uuid.New(), Start: ptr(at(4, 15, 0))}
	keep.End = ptr(at(4, 10, 20))
	rec.BreakTimes = []model.BreakTime{keep, added}
	rec.CheckOut = ptr(at(4, 18, 0))
	_, err = repo.Update(ctx, rec)
	require.NoError(t, err)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, rec.Equal(got))

	_, _, err = repo.BreakTimes().Get(ctx, drop.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Update(ctx, model.NewTimeRecord(uuid.New(), at(4, 9, 0)))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteIsIdempotentAndCascades(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTimeRecordRepository(openTestDB(t), nil)

	b := model.BreakTime{ID: uuid.New(), Start: ptr(at(4, 12, 0))}
	rec := model.NewTimeRecord(uuid.New(), at(4, 9, 0))
	rec.BreakTimes = []model.BreakTime{b}
	_, err := repo.Insert(ctx, rec)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, rec))
	require.NoError(t, repo.Delete(ctx, rec))

	_, _, err = repo.BreakTimes().Get(ctx, b.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBreakTimeChildOps(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTimeRecordRepository(openTestDB(t), nil)
	breaks := repo.BreakTimes()

	rec := model.NewTimeRecord(uuid.New(), at(4, 9, 0))
	_, err := repo.Insert(ctx, rec)
	require.NoError(t, err)

	b := model.BreakTime{ID: uuid.New(), Start: ptr(at(4, 12, 0))}
	_, err = breaks.InsertChild(ctx, rec.ID, b)
	require.NoError(t, err)

	b.End = ptr(at(4, 12, 45))
	_, err = breaks.UpdateChild(ctx, rec.ID, b)
	require.NoError(t, err)

	got, parentID, err := breaks.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, rec.ID, parentID)
	require.True(t, b.Equal(got))

	require.NoError(t, breaks.DeleteChild(ctx, rec.ID, b))
	_, err = breaks.Replace(ctx, b)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUptimeRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUptimeRepository(openTestDB(t), nil)

	rec := model.NewSystemUptimeRecord(uuid.New(), at(4, 8, 0))
	rec.Shutdown = at(4, 18, 0)
	rec.SleepRecords = []model.SleepRecord{{ID: uuid.New(), Start: at(4, 12, 0), End: at(4, 12, 30)}}
	_, err := repo.Insert(ctx, rec)
	require.NoError(t, err)

	rec.SleepRecords = append(rec.SleepRecords, model.SleepRecord{ID: uuid.New(), Start: at(4, 16, 0), End: at(4, 16, 5)})
	_, err = repo.Update(ctx, rec)
	require.NoError(t, err)

	records, err := repo.RecordsForMonth(ctx, 2025, time.December)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, rec.Equal(records[0]))
	require.Equal(t, 9*time.Hour+25*time.Minute, records[0].Uptime())

	require.NoError(t, repo.DeleteByID(ctx, rec.ID))
	_, err = repo.Get(ctx, rec.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWritesNotify(t *testing.T) {
	ctx := context.Background()
	notifier := notify.NewBroadcaster()
	defer notifier.Close()
	signals, unsubscribe := notifier.Subscribe()
	defer unsubscribe()

	repo := repository.NewTimeRecordRepository(openTestDB(t), notifier)
	_, err := repo.Insert(ctx, model.NewTimeRecord(uuid.New(), at(4, 9, 0)))
	require.NoError(t, err)

	select {
	case <-signals:
	case <-time.After(250 * time.Millisecond):
		t.Fatal("expected a change notification after insert")
	}
}
