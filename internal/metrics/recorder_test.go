package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveRequest("GET", "/records", 200, time.Millisecond)
	r.IncReconcileOp("record", "insert", ResultSuccess)
	r.SetUptimeSession(true, false)
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveRequest("GET", "/records", 200, 150*time.Millisecond)
	pr.IncReconcileOp("record", "update", ResultSuccess)
	pr.IncReconcileOp("record", "update", ResultSuccess)
	pr.IncReconcileOp("break_time", "delete", Result(false))
	pr.IncWorkTransition("check in", ResultSuccess)
	pr.IncUptimeEvent("sleep", ResultSuccess)
	pr.SetUptimeSession(true, true)

	if got := testutil.ToFloat64(pr.reconcileOps.WithLabelValues("record", "update", "success")); got != 2 {
		t.Fatalf("expected 2 record updates, got %v", got)
	}
	if got := testutil.ToFloat64(pr.reconcileOps.WithLabelValues("break_time", "delete", "failure")); got != 1 {
		t.Fatalf("expected 1 failed break delete, got %v", got)
	}
	if got := testutil.ToFloat64(pr.uptimeSleeping); got != 1 {
		t.Fatalf("expected sleeping gauge 1, got %v", got)
	}

	pr.SetUptimeSession(false, false)
	if got := testutil.ToFloat64(pr.uptimeRecording); got != 0 {
		t.Fatalf("expected recording gauge 0, got %v", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestHTTPHandlerExposesMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncWorkTransition("check out", ResultSuccess)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "worklog_work_transitions_total") {
		t.Fatalf("expected work transition counter in scrape output")
	}
}
