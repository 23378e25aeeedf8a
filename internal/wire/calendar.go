package wire

import (
	"time"

	"worklog/backend/internal/calendar"
)

const dateLayout = "2006-01-02"

// CalendarDay is one date of a month summary. Durations are seconds.
type CalendarDay struct {
	Date       string     `json:"date"`
	Kind       string     `json:"kind"`
	TimeWorked float64    `json:"timeWorked"`
	Uptime     float64    `json:"uptime"`
	FirstIn    *Timestamp `json:"firstIn"`
	LastOut    *Timestamp `json:"lastOut"`
}

type Calendar struct {
	Year       int           `json:"year"`
	Month      int           `json:"month"`
	Days       []CalendarDay `json:"days"`
	TimeWorked float64       `json:"timeWorked"`
	Uptime     float64       `json:"uptime"`
	DaysWorked int           `json:"daysWorked"`
	Workdays   int           `json:"workdays"`
}

func FromSummary(year int, month time.Month, s calendar.Summary) Calendar {
	out := Calendar{
		Year:       year,
		Month:      int(month),
		Days:       make([]CalendarDay, 0, len(s.Days)),
		TimeWorked: s.TimeWorked.Seconds(),
		Uptime:     s.Uptime.Seconds(),
		DaysWorked: s.DaysWorked,
		Workdays:   s.Workdays,
	}
	for _, d := range s.Days {
		out.Days = append(out.Days, CalendarDay{
			Date:       d.Date.Format(dateLayout),
			Kind:       string(d.Kind),
			TimeWorked: d.TimeWorked.Seconds(),
			Uptime:     d.Uptime.Seconds(),
			FirstIn:    TimestampPtr(d.FirstIn),
			LastOut:    TimestampPtr(d.LastOut),
		})
	}
	return out
}
