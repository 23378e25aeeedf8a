package wire

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"worklog/backend/internal/model"
)

var (
	ErrMissingCheckIn  = errors.New("checkIn is required")
	ErrMissingStart    = errors.New("start is required")
	ErrMissingEnd      = errors.New("end is required")
	ErrMissingLaunch   = errors.New("launch is required")
	ErrMissingShutdown = errors.New("shutdown is required")

	ErrCheckOutBeforeCheckIn = errors.New("checkOut must not precede checkIn")
	ErrShutdownBeforeLaunch  = errors.New("shutdown must not precede launch")
	ErrEndBeforeStart        = errors.New("end must not precede start")
)

type BreakTime struct {
	ID    uuid.UUID  `json:"id"`
	Start *Timestamp `json:"start"`
	End   *Timestamp `json:"end"`
}

// TimeRecord is the record payload. Year and Month are informational: the receiver derives
// them from checkIn. A nil BreakTimes means the sender left the collection out.
type TimeRecord struct {
	ID         uuid.UUID   `json:"id"`
	Year       int         `json:"year,omitempty"`
	Month      int         `json:"month,omitempty"`
	CheckIn    *Timestamp  `json:"checkIn"`
	CheckOut   *Timestamp  `json:"checkOut"`
	BreakTimes []BreakTime `json:"breakTimes"`
}

type SleepRecord struct {
	ID    uuid.UUID  `json:"id"`
	Start *Timestamp `json:"start"`
	End   *Timestamp `json:"end"`
}

type SystemUptimeRecord struct {
	ID           uuid.UUID     `json:"id"`
	Year         int           `json:"year,omitempty"`
	Month        int           `json:"month,omitempty"`
	Day          int           `json:"day,omitempty"`
	Launch       *Timestamp    `json:"launch"`
	Shutdown     *Timestamp    `json:"shutdown"`
	SleepRecords []SleepRecord `json:"sleepRecords"`
}

type Records struct {
	Records []TimeRecord `json:"records"`
}

type Uptimes struct {
	Uptimes []SystemUptimeRecord `json:"uptimes"`
}

type BreakTimes struct {
	BreakTimes []BreakTime `json:"breakTimes"`
}

type SleepRecords struct {
	SleepRecords []SleepRecord `json:"sleepRecords"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

func FromBreakTime(b model.BreakTime) BreakTime {
	return BreakTime{ID: b.ID, Start: TimestampPtr(b.Start), End: TimestampPtr(b.End)}
}

// Model validates the payload. A break must have started and cannot end before it starts.
func (b BreakTime) Model(loc *time.Location) (model.BreakTime, error) {
	if b.Start == nil {
		return model.BreakTime{}, ErrMissingStart
	}
	if b.End != nil && b.End.Time().Before(b.Start.Time()) {
		return model.BreakTime{}, ErrEndBeforeStart
	}
	return model.BreakTime{ID: b.ID, Start: inLoc(b.Start.TimePtr(), loc), End: inLoc(b.End.TimePtr(), loc)}, nil
}

func FromTimeRecord(r model.TimeRecord) TimeRecord {
	out := TimeRecord{
		ID:         r.ID,
		Year:       r.Year,
		Month:      int(r.Month),
		CheckIn:    TimestampPtr(r.CheckIn),
		CheckOut:   TimestampPtr(r.CheckOut),
		BreakTimes: make([]BreakTime, 0, len(r.BreakTimes)),
	}
	for _, b := range r.BreakTimes {
		out.BreakTimes = append(out.BreakTimes, FromBreakTime(b))
	}
	return out
}

// Model validates the payload and rebuilds the record with Year and Month taken from
// checkIn in loc.
func (r TimeRecord) Model(loc *time.Location) (model.TimeRecord, error) {
	if r.CheckIn == nil {
		return model.TimeRecord{}, ErrMissingCheckIn
	}
	if r.CheckOut != nil && r.CheckOut.Time().Before(r.CheckIn.Time()) {
		return model.TimeRecord{}, ErrCheckOutBeforeCheckIn
	}

	out := model.TimeRecord{ID: r.ID, CheckOut: inLoc(r.CheckOut.TimePtr(), loc)}
	out.SetCheckIn(inLoc(r.CheckIn.TimePtr(), loc))
	for _, b := range r.BreakTimes {
		bt, err := b.Model(loc)
		if err != nil {
			return model.TimeRecord{}, err
		}
		out.BreakTimes = append(out.BreakTimes, bt)
	}
	return out, nil
}

func FromTimeRecords(records []model.TimeRecord) Records {
	out := Records{Records: make([]TimeRecord, 0, len(records))}
	for _, r := range records {
		out.Records = append(out.Records, FromTimeRecord(r))
	}
	return out
}

func (r Records) Model(loc *time.Location) ([]model.TimeRecord, error) {
	out := make([]model.TimeRecord, 0, len(r.Records))
	for _, rec := range r.Records {
		m, err := rec.Model(loc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func FromSleepRecord(s model.SleepRecord) SleepRecord {
	start, end := NewTimestamp(s.Start), NewTimestamp(s.End)
	return SleepRecord{ID: s.ID, Start: &start, End: &end}
}

// Model validates the payload. Sleep records are always closed on the wire; an open sleep
// carries end equal to its last-seen time.
func (s SleepRecord) Model(loc *time.Location) (model.SleepRecord, error) {
	if s.Start == nil {
		return model.SleepRecord{}, ErrMissingStart
	}
	if s.End == nil {
		return model.SleepRecord{}, ErrMissingEnd
	}
	if s.End.Time().Before(s.Start.Time()) {
		return model.SleepRecord{}, ErrEndBeforeStart
	}
	return model.SleepRecord{ID: s.ID, Start: s.Start.Time().In(location(loc)), End: s.End.Time().In(location(loc))}, nil
}

func FromUptimeRecord(r model.SystemUptimeRecord) SystemUptimeRecord {
	launch, shutdown := NewTimestamp(r.Launch), NewTimestamp(r.Shutdown)
	out := SystemUptimeRecord{
		ID:           r.ID,
		Year:         r.Year,
		Month:        int(r.Month),
		Day:          r.Day,
		Launch:       &launch,
		Shutdown:     &shutdown,
		SleepRecords: make([]SleepRecord, 0, len(r.SleepRecords)),
	}
	for _, s := range r.SleepRecords {
		out.SleepRecords = append(out.SleepRecords, FromSleepRecord(s))
	}
	return out
}

// Model validates the payload and derives Year, Month and Day from launch in loc.
func (r SystemUptimeRecord) Model(loc *time.Location) (model.SystemUptimeRecord, error) {
	if r.Launch == nil {
		return model.SystemUptimeRecord{}, ErrMissingLaunch
	}
	if r.Shutdown == nil {
		return model.SystemUptimeRecord{}, ErrMissingShutdown
	}
	if r.Shutdown.Time().Before(r.Launch.Time()) {
		return model.SystemUptimeRecord{}, ErrShutdownBeforeLaunch
	}

	out := model.SystemUptimeRecord{ID: r.ID, Shutdown: r.Shutdown.Time().In(location(loc))}
	out.SetLaunch(r.Launch.Time().In(location(loc)))
	for _, s := range r.SleepRecords {
		sr, err := s.Model(loc)
		if err != nil {
			return model.SystemUptimeRecord{}, err
		}
		out.SleepRecords = append(out.SleepRecords, sr)
	}
	return out, nil
}

func FromUptimeRecords(records []model.SystemUptimeRecord) Uptimes {
	out := Uptimes{Uptimes: make([]SystemUptimeRecord, 0, len(records))}
	for _, r := range records {
		out.Uptimes = append(out.Uptimes, FromUptimeRecord(r))
	}
	return out
}

func (u Uptimes) Model(loc *time.Location) ([]model.SystemUptimeRecord, error) {
	out := make([]model.SystemUptimeRecord, 0, len(u.Uptimes))
	for _, rec := range u.Uptimes {
		m, err := rec.Model(loc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

func inLoc(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(location(loc))
	return &v
}
