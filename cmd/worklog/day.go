package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"worklog/backend/internal/model"
	"worklog/backend/internal/reconcile"
	"worklog/backend/internal/taskqueue"
	"worklog/backend/internal/timeutil"
	"worklog/backend/internal/wire"
)

const dayLayout = "2006-01-02"

var (
	dayDate   string
	dayOutput string
	dayDryRun bool
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Export one day's records for offline editing and push the edits back",
}

var dayExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write one day's records as JSON",
	Args:  cobra.NoArgs,
	RunE:  runDayExport,
}

var dayPushCmd = &cobra.Command{
	Use:   "push <file>",
	Short: "Reconcile the server's records for a day with an edited export",
	Long: `push compares the edited file with the records the server holds for the day and
issues one request per changed record. Records or breaks with an unknown or empty id are
created; records missing from the file are deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: runDayPush,
}

func init() {
	dayCmd.PersistentFlags().StringVar(&dayDate, "date", "", "day as YYYY-MM-DD (default today)")
	dayExportCmd.Flags().StringVarP(&dayOutput, "output", "o", "", "write to file instead of stdout")
	dayPushCmd.Flags().BoolVar(&dayDryRun, "dry-run", false, "print the changes without sending them")

	dayCmd.AddCommand(dayExportCmd)
	dayCmd.AddCommand(dayPushCmd)
}

func runDayExport(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	date, err := parseDay(dayDate, a.clock.Now(), a.loc)
	if err != nil {
		return err
	}

	records, err := a.client.TimeRecords().RecordsForMonth(commandContext(cmd), date.Year(), date.Month())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dayOutput != "" {
		f, err := os.Create(dayOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(wire.FromTimeRecords(recordsOn(records, date)))
}

func runDayPush(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	date, err := parseDay(dayDate, a.clock.Now(), a.loc)
	if err != nil {
		return err
	}

	edited, err := readDay(args[0], a.loc)
	if err != nil {
		return err
	}

	records, err := a.client.TimeRecords().RecordsForMonth(ctx, date.Year(), date.Month())
	if err != nil {
		return err
	}
	original := recordsOn(records, date)

	out := cmd.OutOrStdout()
	if dayDryRun {
		changes := reconcile.Diff(original, edited)
		fmt.Fprintf(out, "Would insert %d, update %d and delete %d records (%d unchanged)\n",
			len(changes.Inserted), len(changes.Updated), len(changes.Deleted), len(changes.Unchanged))
		return nil
	}

	queue := taskqueue.New("day-push", taskqueue.WithLogger(a.logger))
	tree := reconcile.TimeRecordTree(
		reconcile.Queued[model.TimeRecord](a.client.TimeRecords(), queue),
		reconcile.QueuedChildren[model.BreakTime](a.client.BreakTimes(), queue),
	)
	result, err := tree.Reconcile(ctx, original, edited)
	renderReport(out, result.Report)
	if err != nil {
		return fmt.Errorf("push stopped: %w", err)
	}
	return nil
}

func parseDay(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return timeutil.StartOfDay(now.In(loc)), nil
	}
	date, err := time.ParseInLocation(dayLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", raw)
	}
	return date, nil
}

// recordsOn keeps the records checked in on date, in date's location.
func recordsOn(records []model.TimeRecord, date time.Time) []model.TimeRecord {
	var out []model.TimeRecord
	for _, r := range records {
		if r.CheckIn != nil && timeutil.SameDay(r.CheckIn.In(date.Location()), date) {
			out = append(out, r)
		}
	}
	model.SortTimeRecords(out)
	return out
}

func readDay(path string, loc *time.Location) ([]model.TimeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeDay(f, loc)
}

func decodeDay(r io.Reader, loc *time.Location) ([]model.TimeRecord, error) {
	var payload wire.Records
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode day: %w", err)
	}
	records, err := payload.Model(loc)
	if err != nil {
		return nil, fmt.Errorf("decode day: %w", err)
	}
	return withProvisionalIDs(records), nil
}

// withProvisionalIDs gives hand-written entries without an id one of their own, so that they
// diff as inserts instead of colliding on the zero id.
func withProvisionalIDs(records []model.TimeRecord) []model.TimeRecord {
	out := make([]model.TimeRecord, len(records))
	for i, r := range records {
		r = r.Clone()
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		for j := range r.BreakTimes {
			if r.BreakTimes[j].ID == uuid.Nil {
				r.BreakTimes[j].ID = uuid.New()
			}
		}
		out[i] = r
	}
	return out
}

func renderReport(w io.Writer, report reconcile.Report) {
	fmt.Fprintf(w, "Records: %d inserted, %d updated, %d deleted, %d unchanged\n",
		report.Parents.Inserted, report.Parents.Updated, report.Parents.Deleted, report.Parents.Unchanged)
	fmt.Fprintf(w, "Breaks:  %d inserted, %d updated, %d deleted\n",
		report.Children.Inserted, report.Children.Updated, report.Children.Deleted)
}
