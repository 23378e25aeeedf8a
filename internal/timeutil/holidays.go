package timeutil

import (
	"fmt"
	"strings"
	"time"
)

type DayKind string

const (
	Workday DayKind = "workday"
	Weekend DayKind = "weekend"
	Holiday DayKind = "holiday"
)

const dateLayout = "2006-01-02"

// Holidays is a set of non-working calendar dates keyed by YYYY-MM-DD.
type Holidays map[string]struct{}

func ParseHolidays(dates []string) (Holidays, error) {
	h := make(Holidays, len(dates))
	for _, raw := range dates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("parse holiday %q: %w", raw, err)
		}
		h[d.Format(dateLayout)] = struct{}{}
	}
	return h, nil
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (h Holidays) IsHoliday(t time.Time) bool {
	_, ok := h[t.Format(dateLayout)]
	return ok
}

// Classify ranks an explicit holiday above a weekend.
func (h Holidays) Classify(t time.Time) DayKind {
	switch {
	case h.IsHoliday(t):
		return Holiday
	case IsWeekend(t):
		return Weekend
	default:
		return Workday
	}
}
