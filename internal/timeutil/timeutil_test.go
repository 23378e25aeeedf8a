package timeutil_test

import (
	"testing"
	"time"

	"worklog/backend/internal/timeutil"
)

func TestDatesOf(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.December, 31},
		{2024, time.February, 29},
		{2025, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2025, time.April, 30},
	}
	for _, tt := range tests {
		dates := timeutil.DatesOf(tt.year, tt.month, time.UTC)
		if len(dates) != tt.want {
			t.Errorf("DatesOf(%d, %s) has %d dates, want %d", tt.year, tt.month, len(dates), tt.want)
			continue
		}
		for i, d := range dates {
			if d.Day() != i+1 || d.Month() != tt.month || d.Hour() != 0 {
				t.Errorf("DatesOf(%d, %s)[%d] = %v", tt.year, tt.month, i, d)
			}
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m"},
		{45 * time.Minute, "45m"},
		{8*time.Hour + 30*time.Minute, "8h30m"},
		{26*time.Hour + 5*time.Minute, "26h05m"},
		{-time.Hour, "0m"},
	}
	for _, tt := range tests {
		if got := timeutil.FormatElapsed(tt.d); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	days, hours, minutes := timeutil.Split(49*time.Hour + 7*time.Minute + 30*time.Second)
	if days != 2 || hours != 1 || minutes != 7 {
		t.Errorf("Split = %d %d %d, want 2 1 7", days, hours, minutes)
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 12, 4, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 12, 5, 0, 1, 0, 0, time.UTC)
	if timeutil.SameDay(a, b) {
		t.Error("expected different days across midnight")
	}
	if !timeutil.SameDay(timeutil.StartOfDay(a), a) {
		t.Error("StartOfDay should stay on the same day")
	}
}

func TestClassify(t *testing.T) {
	holidays, err := timeutil.ParseHolidays([]string{"2025-12-25", " ", "2026-01-01"})
	if err != nil {
		t.Fatalf("ParseHolidays: %v", err)
	}

	tests := []struct {
		date time.Time
		want timeutil.DayKind
	}{
		{time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC), timeutil.Workday},
		{time.Date(2025, 12, 25, 12, 0, 0, 0, time.UTC), timeutil.Holiday},
		{time.Date(2025, 12, 27, 12, 0, 0, 0, time.UTC), timeutil.Weekend},
		{time.Date(2025, 12, 28, 12, 0, 0, 0, time.UTC), timeutil.Weekend},
	}
	for _, tt := range tests {
		if got := holidays.Classify(tt.date); got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}

	if _, err := timeutil.ParseHolidays([]string{"25/12/2025"}); err == nil {
		t.Error("expected error for malformed holiday")
	}
}

func TestFormatClock(t *testing.T) {
	if got := timeutil.FormatClock(nil); got != "--:--" {
		t.Errorf("FormatClock(nil) = %q", got)
	}
	ts := time.Date(2025, 12, 4, 9, 5, 0, 0, time.UTC)
	if got := timeutil.FormatClock(&ts); got != "09:05" {
		t.Errorf("FormatClock = %q", got)
	}
}
