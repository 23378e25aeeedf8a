package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"worklog/backend/internal/metrics"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	return engine
}

func TestRequestIDAssignedAndEchoed(t *testing.T) {
	engine := newEngine(RequestID())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	generated := rec.Header().Get(RequestIDHeader)
	require.Len(t, generated, 36)
	require.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	require.Equal(t, "abc-123", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	engine := newEngine(CORS([]string{"http://localhost:5173"}))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	engine := newEngine(CORS([]string{"*"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

type recordingRecorder struct {
	routes   []string
	statuses []int
}

func (r *recordingRecorder) ObserveRequest(_ string, route string, status int, _ time.Duration) {
	r.routes = append(r.routes, route)
	r.statuses = append(r.statuses, status)
}
func (r *recordingRecorder) IncReconcileOp(string, string, metrics.ResultLabel) {}
func (r *recordingRecorder) IncWorkTransition(string, metrics.ResultLabel)      {}
func (r *recordingRecorder) IncUptimeEvent(string, metrics.ResultLabel)         {}
func (r *recordingRecorder) SetUptimeSession(bool, bool)                        {}

func TestLoggerReportsRoutes(t *testing.T) {
	recorder := &recordingRecorder{}
	engine := newEngine(RequestID(), Logger(slog.New(slog.NewTextHandler(io.Discard, nil)), recorder))

	for _, path := range []string{"/ping", "/nowhere"} {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, []string{"/ping", "unmatched"}, recorder.routes)
	require.Equal(t, []int{http.StatusOK, http.StatusNotFound}, recorder.statuses)
}
