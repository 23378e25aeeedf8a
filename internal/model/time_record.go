package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type WorkState string

const (
	OffWork WorkState = "off_work"
	AtWork  WorkState = "at_work"
	AtBreak WorkState = "at_break"
)

type BreakTime struct {
	ID    uuid.UUID
	Start *time.Time
	End   *time.Time
}

func (b BreakTime) Key() uuid.UUID { return b.ID }

func (b BreakTime) Equal(other BreakTime) bool {
	return b.ID == other.ID && sameInstant(b.Start, other.Start) && sameInstant(b.End, other.End)
}

// Duration is zero until both ends are known.
func (b BreakTime) Duration() time.Duration {
	if b.Start == nil || b.End == nil {
		return 0
	}
	return nonNegative(b.End.Sub(*b.Start))
}

func (b BreakTime) Open() bool {
	return b.Start != nil && b.End == nil
}

// TimeRecord is one attendance span. Year and Month index the record by its check-in.
type TimeRecord struct {
	ID         uuid.UUID
	Year       int
	Month      time.Month
	CheckIn    *time.Time
	CheckOut   *time.Time
	BreakTimes []BreakTime
}

func NewTimeRecord(id uuid.UUID, checkIn time.Time) TimeRecord {
	rec := TimeRecord{ID: id}
	rec.SetCheckIn(&checkIn)
	return rec
}

// SetCheckIn keeps Year and Month in step with the check-in timestamp.
func (r *TimeRecord) SetCheckIn(checkIn *time.Time) {
	r.CheckIn = checkIn
	if checkIn != nil {
		r.Year = checkIn.Year()
		r.Month = checkIn.Month()
	}
}

func (r TimeRecord) IndexConsistent() bool {
	if r.CheckIn == nil {
		return true
	}
	return r.Year == r.CheckIn.Year() && r.Month == r.CheckIn.Month()
}

func (r TimeRecord) Key() uuid.UUID { return r.ID }

func (r TimeRecord) Equal(other TimeRecord) bool {
	if r.ID != other.ID || r.Year != other.Year || r.Month != other.Month {
		return false
	}
	if !sameInstant(r.CheckIn, other.CheckIn) || !sameInstant(r.CheckOut, other.CheckOut) {
		return false
	}
	if len(r.BreakTimes) != len(other.BreakTimes) {
		return false
	}
	for i := range r.BreakTimes {
		if !r.BreakTimes[i].Equal(other.BreakTimes[i]) {
			return false
		}
	}
	return true
}

// SortedBreakTimes returns a copy ordered by start; breaks without a start sort first.
func (r TimeRecord) SortedBreakTimes() []BreakTime {
	sorted := make([]BreakTime, len(r.BreakTimes))
	copy(sorted, r.BreakTimes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return timeLess(sorted[i].Start, sorted[j].Start)
	})
	return sorted
}

func (r TimeRecord) LastBreak() (BreakTime, bool) {
	if len(r.BreakTimes) == 0 {
		return BreakTime{}, false
	}
	return r.BreakTimes[len(r.BreakTimes)-1], true
}

func (r TimeRecord) BreakDuration() time.Duration {
	var total time.Duration
	for _, b := range r.BreakTimes {
		total += b.Duration()
	}
	return total
}

// TimeWorked contributes zero while the record is still open.
func (r TimeRecord) TimeWorked() time.Duration {
	if r.CheckIn == nil || r.CheckOut == nil {
		return 0
	}
	return nonNegative(r.CheckOut.Sub(*r.CheckIn) - r.BreakDuration())
}

func (r TimeRecord) Clone() TimeRecord {
	out := r
	out.BreakTimes = make([]BreakTime, len(r.BreakTimes))
	copy(out.BreakTimes, r.BreakTimes)
	return out
}

// DeriveWorkState inspects the most recent record of the month.
func DeriveWorkState(records []TimeRecord) WorkState {
	if len(records) == 0 {
		return OffWork
	}
	last := records[len(records)-1]
	if last.CheckIn == nil {
		return OffWork
	}
	if b, ok := last.LastBreak(); ok && b.Open() {
		return AtBreak
	}
	if last.CheckOut == nil {
		return AtWork
	}
	return OffWork
}

// SortTimeRecords orders by check-in; records without a check-in sort first.
func SortTimeRecords(records []TimeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return timeLess(records[i].CheckIn, records[j].CheckIn)
	})
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func timeLess(a, b *time.Time) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return a.Before(*b)
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
