package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"worklog/backend/internal/calendar"
	"worklog/backend/internal/holidays"
	"worklog/backend/internal/timeutil"
	"worklog/backend/internal/wire"
)

var (
	calendarYear   int
	calendarMonth  int
	calendarFormat string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show worked time and uptime per day for a month",
	Args:  cobra.NoArgs,
	RunE:  runCalendar,
}

func init() {
	calendarCmd.Flags().IntVar(&calendarYear, "year", 0, "year (default current)")
	calendarCmd.Flags().IntVar(&calendarMonth, "month", 0, "month 1-12 (default current)")
	calendarCmd.Flags().StringVar(&calendarFormat, "format", "text", "Output format: text, json")
}

func runCalendar(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	holidayCal, err := holidays.Resolve(a.cfg.Holidays, a.cfg.HolidaysFile)
	if err != nil {
		return err
	}

	now := a.clock.Now().In(a.loc)
	year, month := now.Year(), now.Month()
	if calendarYear != 0 {
		year = calendarYear
	}
	if calendarMonth != 0 {
		if calendarMonth < 1 || calendarMonth > 12 {
			return fmt.Errorf("month must be between 1 and 12, got %d", calendarMonth)
		}
		month = time.Month(calendarMonth)
	}

	days, err := calendar.Month(commandContext(cmd), a.client.TimeRecords(), a.client.Uptimes(), year, month, a.loc)
	if err != nil {
		return err
	}
	summary := calendar.Summarize(days, holidayCal.Holidays())

	out := cmd.OutOrStdout()
	switch calendarFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(wire.FromSummary(year, month, summary))
	case "text":
		return renderSummary(out, summary)
	default:
		return fmt.Errorf("unknown format %q", calendarFormat)
	}
}

func renderSummary(w io.Writer, s calendar.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tIN\tOUT\tWORKED\tUPTIME\t")
	for _, d := range s.Days {
		marker := d.Date.Format("Mon")
		if d.Kind != timeutil.Workday {
			marker += " (" + string(d.Kind) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			d.Date.Format("2006-01-02"),
			marker,
			timeutil.FormatClock(d.FirstIn),
			timeutil.FormatClock(d.LastOut),
			timeutil.FormatElapsed(d.TimeWorked),
			timeutil.FormatElapsed(d.Uptime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Worked %s on %d of %d workdays, uptime %s\n",
		timeutil.FormatElapsed(s.TimeWorked), s.DaysWorked, s.Workdays, timeutil.FormatElapsed(s.Uptime))
	return err
}
