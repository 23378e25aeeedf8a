package model

import "time"

// CalendarRecord is the derived view of one calendar date.
type CalendarRecord struct {
	Date                time.Time
	Records             []TimeRecord
	SystemUptimeRecords []SystemUptimeRecord
}

func (c CalendarRecord) TimeWorked() time.Duration {
	var total time.Duration
	for _, r := range c.Records {
		total += r.TimeWorked()
	}
	return total
}

func (c CalendarRecord) SystemUptime() time.Duration {
	var total time.Duration
	for _, r := range c.SystemUptimeRecords {
		total += r.Uptime()
	}
	return total
}

func (c CalendarRecord) Empty() bool {
	return len(c.Records) == 0 && len(c.SystemUptimeRecords) == 0
}
