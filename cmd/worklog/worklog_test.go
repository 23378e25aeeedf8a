package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklog/backend/internal/calendar"
	"worklog/backend/internal/model"
	"worklog/backend/internal/reconcile"
	"worklog/backend/internal/timeutil"
	"worklog/backend/internal/wire"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestDescribeState(t *testing.T) {
	assert.Equal(t, "at work", describeState(model.AtWork))
	assert.Equal(t, "on a break", describeState(model.AtBreak))
	assert.Equal(t, "off work", describeState(model.OffWork))
}

func TestOpenElapsedClosesRunningBreak(t *testing.T) {
	r := model.NewTimeRecord(uuid.New(), at(3, 8, 0))
	r.BreakTimes = []model.BreakTime{
		{ID: uuid.New(), Start: ptr(at(3, 10, 0)), End: ptr(at(3, 10, 15))},
		{ID: uuid.New(), Start: ptr(at(3, 12, 0))},
	}

	assert.Equal(t, 3*time.Hour+45*time.Minute, openElapsed(r, at(3, 12, 30)))
	assert.Nil(t, r.BreakTimes[1].End, "the original record is left untouched")
	assert.Zero(t, openElapsed(model.TimeRecord{}, at(3, 12, 30)))
}

func TestParseDay(t *testing.T) {
	now := at(3, 23, 30)

	day, err := parseDay("", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, at(3, 0, 0), day)

	day, err = parseDay("2025-03-07", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, at(7, 0, 0), day)

	_, err = parseDay("07.03.2025", now, time.UTC)
	require.Error(t, err)
}

func TestRecordsOnKeepsOneDaySorted(t *testing.T) {
	late := model.NewTimeRecord(uuid.New(), at(4, 13, 0))
	early := model.NewTimeRecord(uuid.New(), at(4, 8, 0))
	other := model.NewTimeRecord(uuid.New(), at(5, 8, 0))

	got := recordsOn([]model.TimeRecord{late, other, early}, at(4, 0, 0))
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
}

func TestWithProvisionalIDs(t *testing.T) {
	kept := uuid.New()
	records := []model.TimeRecord{
		{ID: kept, CheckIn: ptr(at(3, 8, 0))},
		{CheckIn: ptr(at(3, 13, 0)), BreakTimes: []model.BreakTime{{Start: ptr(at(3, 14, 0))}}},
	}

	got := withProvisionalIDs(records)
	assert.Equal(t, kept, got[0].ID)
	assert.NotEqual(t, uuid.Nil, got[1].ID)
	assert.NotEqual(t, uuid.Nil, got[1].BreakTimes[0].ID)
	assert.Equal(t, uuid.Nil, records[1].BreakTimes[0].ID, "input is not modified")

	changes := reconcile.Diff(records[:1], got)
	assert.Len(t, changes.Inserted, 1)
	assert.Len(t, changes.Unchanged, 1)
}

func TestDecodeDayRoundTripsExport(t *testing.T) {
	r := model.NewTimeRecord(uuid.New(), at(3, 8, 0))
	r.CheckOut = ptr(at(3, 16, 0))
	r.BreakTimes = []model.BreakTime{{ID: uuid.New(), Start: ptr(at(3, 12, 0)), End: ptr(at(3, 12, 30))}}

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(wire.FromTimeRecords([]model.TimeRecord{r})))

	got, err := decodeDay(&buf, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, r.Equal(got[0]))

	_, err = decodeDay(strings.NewReader("{"), time.UTC)
	require.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	summary := calendar.Summary{
		Days: []calendar.DaySummary{
			{Date: at(7, 0, 0), Kind: timeutil.Holiday},
			{Date: at(10, 0, 0), Kind: timeutil.Workday, TimeWorked: 7*time.Hour + 30*time.Minute,
				Uptime: 9 * time.Hour, FirstIn: ptr(at(10, 8, 5)), LastOut: ptr(at(10, 16, 5))},
		},
		TimeWorked: 7*time.Hour + 30*time.Minute,
		Uptime:     9 * time.Hour,
		DaysWorked: 1,
		Workdays:   1,
	}

	var buf bytes.Buffer
	require.NoError(t, renderSummary(&buf, summary))
	out := buf.String()

	assert.Contains(t, out, "Fri (holiday)")
	assert.Contains(t, out, "--:--")
	assert.Contains(t, out, "08:05")
	assert.Contains(t, out, "7h30m")
	assert.Contains(t, out, "Worked 7h30m on 1 of 1 workdays, uptime 9h00m")
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	renderReport(&buf, reconcile.Report{
		Parents:  reconcile.Counts{Inserted: 1, Deleted: 2, Unchanged: 3},
		Children: reconcile.Counts{Updated: 4},
	})
	assert.Equal(t,
		"Records: 1 inserted, 0 updated, 2 deleted, 3 unchanged\nBreaks:  0 inserted, 4 updated, 0 deleted\n",
		buf.String())
}
