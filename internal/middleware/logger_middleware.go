package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"worklog/backend/internal/logfields"
	"worklog/backend/internal/metrics"
)

// Logger writes one structured line per request and feeds the request histogram. Requests
// that matched no route are reported under the route "unmatched".
func Logger(logger *slog.Logger, recorder metrics.Recorder) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		recorder.ObserveRequest(c.Request.Method, route, status, elapsed)

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "HTTP request",
			logfields.Method(c.Request.Method),
			logfields.Path(c.Request.URL.Path),
			logfields.Route(route),
			logfields.Status(status),
			logfields.Duration(elapsed),
			logfields.RequestID(GetRequestID(c)),
			logfields.RemoteAddr(c.ClientIP()),
		)
	}
}
