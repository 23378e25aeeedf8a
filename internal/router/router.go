package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"worklog/backend/internal/handler"
	"worklog/backend/internal/metrics"
	"worklog/backend/internal/middleware"
)

type Handlers struct {
	Records  *handler.RecordHandler
	Uptimes  *handler.UptimeHandler
	Calendar *handler.CalendarHandler
	Work     *handler.WorkHandler
}

// New builds the sync protocol engine. A request must match one route exactly: trailing
// slashes, extra segments and unrouted methods are answered with 404. metricsHandler may be nil.
func New(
	h Handlers,
	corsOrigins []string,
	logger *slog.Logger,
	recorder metrics.Recorder,
	metricsHandler http.Handler,
) *gin.Engine {
	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger, recorder),
		middleware.CORS(corsOrigins),
	)
	engine.NoRoute(handler.NotFound)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(metricsHandler))
	}

	engine.GET("/records", h.Records.List)
	engine.POST("/records", h.Records.Create)
	engine.PUT("/records/:id", h.Records.Replace)
	engine.PATCH("/records/:id", h.Records.Replace)
	engine.DELETE("/records/:id", h.Records.Delete)
	engine.GET("/breaktime/:id", h.Records.GetBreak)
	engine.PUT("/breaktime/:id", h.Records.ReplaceBreak)

	engine.GET("/uptimes", h.Uptimes.List)
	engine.POST("/uptimes", h.Uptimes.Create)
	engine.PUT("/uptimes/:id", h.Uptimes.Replace)
	engine.PATCH("/uptimes/:id", h.Uptimes.Replace)
	engine.DELETE("/uptimes/:id", h.Uptimes.Delete)
	engine.GET("/sleeprecord/:id", h.Uptimes.GetSleep)
	engine.PUT("/sleeprecord/:id", h.Uptimes.ReplaceSleep)

	engine.GET("/calendar", h.Calendar.Month)
	engine.GET("/calendar/stream", h.Calendar.Stream)

	engine.GET("/work", h.Work.State)
	engine.POST("/work/:op", h.Work.Transition)

	engine.GET("/session", h.Uptimes.Session)
	engine.POST("/session/:event", h.Uptimes.SessionEvent)

	return engine
}
