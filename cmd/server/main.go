package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"worklog/backend/internal/config"
	"worklog/backend/internal/db"
	"worklog/backend/internal/handler"
	"worklog/backend/internal/holidays"
	"worklog/backend/internal/logfields"
	"worklog/backend/internal/metrics"
	"worklog/backend/internal/notify"
	"worklog/backend/internal/power"
	"worklog/backend/internal/repository"
	"worklog/backend/internal/router"
	"worklog/backend/internal/scheduler"
	"worklog/backend/internal/service"
	"worklog/backend/internal/uptime"
	"worklog/backend/internal/workstate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", logfields.Error(err))
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := cfg.NewLogger()
	loc := cfg.Location()
	clock := clockwork.NewRealClock()
	if cfg.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	holidayCal, err := holidays.Resolve(cfg.Holidays, cfg.HolidaysFile)
	if err != nil {
		return fmt.Errorf("load holidays: %w", err)
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notify.NewBroadcaster()
	defer notifier.Close()
	records := repository.NewTimeRecordRepository(database, notifier)
	uptimes := repository.NewUptimeRepository(database, notifier)

	if cfg.HolidaysFile != "" {
		if err := watchHolidays(ctx, cfg.HolidaysFile, holidayCal, notifier, clock, logger); err != nil {
			return err
		}
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		registry := prom.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusRecorder(registry)
		metricsHandler = metrics.HTTPHandler(registry)
	}

	var tracker *uptime.Tracker
	if cfg.TrackUptime {
		tracker = uptime.NewTracker(uptimes, nil, clock, loc, uptime.WithLogger(logger), uptime.WithRecorder(recorder))
		if err := tracker.Launch(ctx); err != nil {
			return fmt.Errorf("record launch: %w", err)
		}
		defer closeSession(tracker, logger)

		sched, err := scheduler.New(clock, logger)
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleHeartbeat(cfg.HeartbeatInterval, tracker); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()

		if cfg.PowerEvents {
			watchPower(ctx, tracker, logger)
		}
	}

	recordService := service.NewRecordService(records, loc, recorder, logger)
	uptimeService := service.NewUptimeService(uptimes, tracker, loc, recorder, logger)
	calendarService := service.NewCalendarService(records, uptimes, notifier, holidayCal, loc, logger)

	workService := service.NewWorkService(workstate.NewMachine(records, clock, loc, logger), recorder, logger)

	engine := router.New(
		router.Handlers{
			Records:  handler.NewRecordHandler(recordService),
			Uptimes:  handler.NewUptimeHandler(uptimeService),
			Calendar: handler.NewCalendarHandler(calendarService),
			Work:     handler.NewWorkHandler(workService),
		},
		cfg.CORSOrigins,
		logger,
		recorder,
		metricsHandler,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Backend listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("run server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

// closeSession records the shutdown on a fresh context; the signal context is already done.
func closeSession(tracker *uptime.Tracker, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := tracker.Shutdown(ctx); err != nil && !errors.Is(err, uptime.ErrNotRecording) {
		logger.Error("Failed to record shutdown", logfields.Error(err))
	}
}

func watchPower(ctx context.Context, tracker *uptime.Tracker, logger *slog.Logger) {
	conn, err := power.Connect()
	if err != nil {
		logger.Warn("Power events unavailable", logfields.Error(err))
		return
	}
	monitor := power.NewMonitor(conn, tracker, logger)
	go func() {
		defer conn.Close()
		if err := monitor.Run(ctx); err != nil {
			logger.Warn("Power monitor stopped", logfields.Error(err))
		}
	}()
}

// watchHolidays reloads the holidays file in the background; open calendar streams are
// refreshed after every reload.
func watchHolidays(ctx context.Context, path string, cal *holidays.Calendar, notifier *notify.Broadcaster, clock clockwork.Clock, logger *slog.Logger) error {
	watcher, err := holidays.NewWatcher(path, cal, notifier.Notify, clock, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Warn("Holidays watcher stopped", logfields.Error(err))
		}
	}()
	return nil
}
