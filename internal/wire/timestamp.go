// Package wire holds the JSON payloads of the sync protocol.
package wire

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ReferenceEpoch is the zero point of every encoded timestamp.
var ReferenceEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxSeconds bounds the offset from ReferenceEpoch that a time.Duration can represent.
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// Timestamp encodes as a JSON number of seconds since ReferenceEpoch, with microsecond
// resolution.
type Timestamp time.Time

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// TimestampPtr returns nil for nil.
func TimestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := Timestamp(*t)
	return &ts
}

func (ts Timestamp) Time() time.Time {
	return time.Time(ts)
}

// TimePtr returns nil for a nil timestamp.
func (ts *Timestamp) TimePtr() *time.Time {
	if ts == nil {
		return nil
	}
	t := time.Time(*ts)
	return &t
}

func (ts Timestamp) Seconds() float64 {
	return float64(time.Time(ts).Sub(ReferenceEpoch)) / float64(time.Second)
}

func FromSeconds(seconds float64) Timestamp {
	micros := math.Round(seconds * 1e6)
	return Timestamp(ReferenceEpoch.Add(time.Duration(micros) * time.Microsecond))
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, ts.Seconds(), 'f', -1, 64), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	seconds, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("timestamp must be seconds since %s, got %s", ReferenceEpoch.Format(time.RFC3339), data)
	}
	if math.Abs(seconds) > maxSeconds {
		return fmt.Errorf("timestamp %s is out of range", data)
	}
	*ts = FromSeconds(seconds)
	return nil
}
