package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"worklog/backend/internal/client"
	"worklog/backend/internal/config"
	"worklog/backend/internal/retry"
	"worklog/backend/internal/workstate"
)

var (
	serverURL string
	timezone  string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "worklog",
	Short: "Attendance and uptime tracking against a worklog server",
	Long: `worklog records check-in, check-out and breaks on a worklog server, shows the
month calendar, and pushes offline edits of a whole day back in one pass.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default $WORKLOG_SERVER)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "", "IANA zone for day boundaries (default $TIMEZONE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests")

	rootCmd.AddCommand(checkInCmd)
	rootCmd.AddCommand(checkOutCmd)
	rootCmd.AddCommand(breakCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(dayCmd)
}

type app struct {
	cfg    config.Config
	client *client.Client
	clock  clockwork.Clock
	loc    *time.Location
	logger *slog.Logger
}

func newApp() (*app, error) {
	cfg := config.Load()
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if timezone != "" {
		cfg.Timezone = timezone
	}
	if verbose {
		cfg.LogLevel = "debug"
	} else if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}

	policy := retry.NewPolicy(retry.BackoffMode(cfg.ClientBackoff), 0, 0, cfg.ClientMaxRetries)
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("retry policy: %w", err)
	}

	logger := cfg.NewLogger()
	loc := cfg.Location()
	clock := clockwork.NewRealClock()
	httpClient := &http.Client{Timeout: cfg.ClientTimeout}

	return &app{
		cfg:    cfg,
		client: client.New(cfg.ServerURL, httpClient, policy, clock, loc, logger),
		clock:  clock,
		loc:    loc,
		logger: logger,
	}, nil
}

func (a *app) machine() *workstate.Machine {
	return workstate.NewMachine(a.client.TimeRecords(), a.clock, a.loc, a.logger)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
