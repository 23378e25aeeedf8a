package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type SleepRecord struct {
	ID    uuid.UUID
	Start time.Time
	End   time.Time
}

func (s SleepRecord) Key() uuid.UUID { return s.ID }

func (s SleepRecord) Equal(other SleepRecord) bool {
	return s.ID == other.ID && s.Start.Equal(other.Start) && s.End.Equal(other.End)
}

func (s SleepRecord) Duration() time.Duration {
	return nonNegative(s.End.Sub(s.Start))
}

// SystemUptimeRecord covers one calendar day of machine activity.
type SystemUptimeRecord struct {
	ID           uuid.UUID
	Year         int
	Month        time.Month
	Day          int
	Launch       time.Time
	Shutdown     time.Time
	SleepRecords []SleepRecord
}

func NewSystemUptimeRecord(id uuid.UUID, launch time.Time) SystemUptimeRecord {
	rec := SystemUptimeRecord{ID: id, Shutdown: launch}
	rec.SetLaunch(launch)
	return rec
}

func (r *SystemUptimeRecord) SetLaunch(launch time.Time) {
	r.Launch = launch
	r.Year = launch.Year()
	r.Month = launch.Month()
	r.Day = launch.Day()
}

func (r SystemUptimeRecord) IndexConsistent() bool {
	return r.Year == r.Launch.Year() && r.Month == r.Launch.Month() && r.Day == r.Launch.Day()
}

func (r SystemUptimeRecord) Key() uuid.UUID { return r.ID }

func (r SystemUptimeRecord) Equal(other SystemUptimeRecord) bool {
	if r.ID != other.ID || r.Year != other.Year || r.Month != other.Month || r.Day != other.Day {
		return false
	}
	if !r.Launch.Equal(other.Launch) || !r.Shutdown.Equal(other.Shutdown) {
		return false
	}
	if len(r.SleepRecords) != len(other.SleepRecords) {
		return false
	}
	for i := range r.SleepRecords {
		if !r.SleepRecords[i].Equal(other.SleepRecords[i]) {
			return false
		}
	}
	return true
}

func (r SystemUptimeRecord) SleepDuration() time.Duration {
	var total time.Duration
	for _, s := range r.SleepRecords {
		total += s.Duration()
	}
	return total
}

// Uptime is the awake time between launch and the last seen shutdown.
func (r SystemUptimeRecord) Uptime() time.Duration {
	return nonNegative(r.Shutdown.Sub(r.Launch) - r.SleepDuration())
}

func (r SystemUptimeRecord) Clone() SystemUptimeRecord {
	out := r
	out.SleepRecords = make([]SleepRecord, len(r.SleepRecords))
	copy(out.SleepRecords, r.SleepRecords)
	return out
}

func SortUptimeRecords(records []SystemUptimeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Launch.Before(records[j].Launch)
	})
}

func SortSleepRecords(records []SleepRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Start.Before(records[j].Start)
	})
}
