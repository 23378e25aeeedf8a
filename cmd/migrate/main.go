package main

import (
	"log/slog"
	"os"

	"worklog/backend/internal/config"
	"worklog/backend/internal/db"
	"worklog/backend/internal/logfields"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("Open database failed", logfields.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database, cfg.MigrationsDir); err != nil {
		logger.Error("Migrations failed", logfields.Error(err))
		database.Close()
		os.Exit(1)
	}

	logger.Info("Migrations applied", slog.String("db", cfg.DBPath))
}
