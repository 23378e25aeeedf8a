package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"worklog/backend/internal/calendar"
	"worklog/backend/internal/model"
	"worklog/backend/internal/timeutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current work state and today's totals",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	now := a.clock.Now().In(a.loc)

	records, err := a.client.TimeRecords().RecordsForMonth(ctx, now.Year(), now.Month())
	if err != nil {
		return err
	}
	model.SortTimeRecords(records)
	state := model.DeriveWorkState(records)

	today := calendar.Aggregate([]time.Time{timeutil.StartOfDay(now)}, records, nil)[0]
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "State:   %s\n", describeState(state))
	fmt.Fprintf(out, "Today:   %s worked", timeutil.FormatElapsed(today.TimeWorked()))
	if state != model.OffWork && len(records) > 0 {
		last := records[len(records)-1]
		fmt.Fprintf(out, ", running since %s (%s)", timeutil.FormatClock(last.CheckIn), timeutil.FormatElapsed(openElapsed(last, now)))
	}
	fmt.Fprintln(out)
	return nil
}

// openElapsed is the working time of a record that has not been checked out yet.
func openElapsed(r model.TimeRecord, now time.Time) time.Duration {
	if r.CheckIn == nil {
		return 0
	}
	closed := r.Clone()
	closed.CheckOut = &now
	for i := range closed.BreakTimes {
		if closed.BreakTimes[i].End == nil {
			closed.BreakTimes[i].End = &now
		}
	}
	return closed.TimeWorked()
}
