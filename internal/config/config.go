package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read from the environment. An empty MigrationsDir selects the embedded schema.
type Config struct {
	Port              string
	DBPath            string
	MigrationsDir     string
	CORSOrigins       []string
	Timezone          string
	Holidays          []string
	HolidaysFile      string
	HeartbeatInterval time.Duration
	TrackUptime       bool
	PowerEvents       bool
	MetricsEnabled    bool
	LogLevel          string
	LogFormat         string
	ServerURL         string
	ClientTimeout     time.Duration
	ClientMaxRetries  int
	ClientBackoff     string
}

// Load reads the environment, after merging an optional .env file from the working directory.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:              getEnv("PORT", "8080"),
		DBPath:            getEnv("DB_PATH", "./data/worklog.db"),
		MigrationsDir:     getEnv("MIGRATIONS_DIR", ""),
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		Timezone:          getEnv("TIMEZONE", "Local"),
		Holidays:          getEnvList("HOLIDAYS", nil),
		HolidaysFile:      getEnv("HOLIDAYS_FILE", ""),
		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", 5*time.Minute),
		TrackUptime:       getEnvBool("TRACK_UPTIME", true),
		PowerEvents:       getEnvBool("POWER_EVENTS", false),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		ServerURL:         getEnv("WORKLOG_SERVER", "http://localhost:8080"),
		ClientTimeout:     getEnvDuration("CLIENT_TIMEOUT", 15*time.Second),
		ClientMaxRetries:  getEnvInt("CLIENT_MAX_RETRIES", 2),
		ClientBackoff:     getEnv("CLIENT_BACKOFF", "linear"),
	}
}

// Location resolves Timezone, falling back to the process-local zone.
func (c Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("unknown timezone, using local", "timezone", c.Timezone, "error", err)
		return time.Local
	}
	return loc
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger and installs it as the slog default.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	var handler slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
