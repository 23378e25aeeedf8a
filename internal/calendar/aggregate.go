// Package calendar groups a month's records into one entry per calendar date.
package calendar

import (
	"context"
	"fmt"
	"time"

	"worklog/backend/internal/model"
	"worklog/backend/internal/timeutil"
)

type TimeRecordSource interface {
	RecordsForMonth(ctx context.Context, year int, month time.Month) ([]model.TimeRecord, error)
}

type UptimeSource interface {
	RecordsForMonth(ctx context.Context, year int, month time.Month) ([]model.SystemUptimeRecord, error)
}

// DatesOf lists midnight of every date in the month.
func DatesOf(year int, month time.Month, loc *time.Location) []time.Time {
	return timeutil.DatesOf(year, month, loc)
}

// Aggregate returns one CalendarRecord per date, in the order of dates. Time records are
// placed by the day of their check-in in the date's location; records without a check-in
// have no day and are left out. Uptime records are placed by their Day index.
func Aggregate(dates []time.Time, records []model.TimeRecord, uptimes []model.SystemUptimeRecord) []model.CalendarRecord {
	out := make([]model.CalendarRecord, len(dates))
	byDay := make(map[int]int, len(dates))
	for i, date := range dates {
		out[i].Date = date
		byDay[date.Day()] = i
	}

	for _, r := range records {
		if r.CheckIn == nil || len(dates) == 0 {
			continue
		}
		checkIn := r.CheckIn.In(dates[0].Location())
		if i, ok := byDay[checkIn.Day()]; ok && checkIn.Month() == dates[i].Month() {
			out[i].Records = append(out[i].Records, r)
		}
	}

	for _, u := range uptimes {
		if i, ok := byDay[u.Day]; ok && u.Month == dates[i].Month() {
			out[i].SystemUptimeRecords = append(out[i].SystemUptimeRecords, u)
		}
	}
	return out
}

// Month loads and aggregates one month from the two sources.
func Month(ctx context.Context, records TimeRecordSource, uptimes UptimeSource, year int, month time.Month, loc *time.Location) ([]model.CalendarRecord, error) {
	timeRecords, err := records.RecordsForMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("load time records: %w", err)
	}
	var uptimeRecords []model.SystemUptimeRecord
	if uptimes != nil {
		uptimeRecords, err = uptimes.RecordsForMonth(ctx, year, month)
		if err != nil {
			return nil, fmt.Errorf("load uptime records: %w", err)
		}
	}
	return Aggregate(DatesOf(year, month, loc), timeRecords, uptimeRecords), nil
}

type DaySummary struct {
	Date       time.Time
	Kind       timeutil.DayKind
	TimeWorked time.Duration
	Uptime     time.Duration
	FirstIn    *time.Time
	LastOut    *time.Time
}

type Summary struct {
	Days       []DaySummary
	TimeWorked time.Duration
	Uptime     time.Duration
	DaysWorked int
	Workdays   int
}

// Summarize totals the aggregate and classifies every date as workday, weekend or holiday.
func Summarize(days []model.CalendarRecord, holidays timeutil.Holidays) Summary {
	var s Summary
	for _, day := range days {
		ds := DaySummary{
			Date:       day.Date,
			Kind:       holidays.Classify(day.Date),
			TimeWorked: day.TimeWorked(),
			Uptime:     day.SystemUptime(),
		}
		for i := range day.Records {
			r := day.Records[i]
			if r.CheckIn != nil && (ds.FirstIn == nil || r.CheckIn.Before(*ds.FirstIn)) {
				ds.FirstIn = r.CheckIn
			}
			if r.CheckOut != nil && (ds.LastOut == nil || r.CheckOut.After(*ds.LastOut)) {
				ds.LastOut = r.CheckOut
			}
		}

		s.Days = append(s.Days, ds)
		s.TimeWorked += ds.TimeWorked
		s.Uptime += ds.Uptime
		if ds.TimeWorked > 0 {
			s.DaysWorked++
		}
		if ds.Kind == timeutil.Workday {
			s.Workdays++
		}
	}
	return s
}
