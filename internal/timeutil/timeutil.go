package timeutil

import (
	"fmt"
	"time"
)

// DaysIn returns the number of days in the month, leap years included.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DatesOf returns midnight of every date in the month, in increasing order.
func DatesOf(year int, month time.Month, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	n := DaysIn(year, month)
	dates := make([]time.Time, 0, n)
	for day := 1; day <= n; day++ {
		dates = append(dates, time.Date(year, month, day, 0, 0, 0, 0, loc))
	}
	return dates
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Split decomposes a duration into whole days, hours and minutes.
func Split(d time.Duration) (days, hours, minutes int) {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	days = total / (24 * 60)
	hours = (total % (24 * 60)) / 60
	minutes = total % 60
	return days, hours, minutes
}

// FormatElapsed formats a duration like "8h30m", "45m" or "0m". Days fold into hours.
func FormatElapsed(d time.Duration) string {
	days, hours, minutes := Split(d)
	hours += days * 24
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatClock formats a time of day as HH:MM, or "--:--" when unknown.
func FormatClock(t *time.Time) string {
	if t == nil {
		return "--:--"
	}
	return t.Format("15:04")
}
