package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	requestDuration *prom.HistogramVec
	reconcileOps    *prom.CounterVec
	workTransitions *prom.CounterVec
	uptimeEvents    *prom.CounterVec
	uptimeRecording prom.Gauge
	uptimeSleeping  prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "worklog",
			Name:      "http_request_duration_seconds",
			Help:      "Sync protocol request latency by route and status",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route", "status"}),
		reconcileOps: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "worklog",
			Name:      "reconcile_operations_total",
			Help:      "Store operations issued by reconciliation passes",
		}, []string{"kind", "op", "result"}),
		workTransitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "worklog",
			Name:      "work_transitions_total",
			Help:      "Check-in, check-out and break transitions by result",
		}, []string{"op", "result"}),
		uptimeEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "worklog",
			Name:      "uptime_events_total",
			Help:      "Launch, shutdown, sleep, wake and heartbeat events by result",
		}, []string{"event", "result"}),
		uptimeRecording: prom.NewGauge(prom.GaugeOpts{
			Namespace: "worklog",
			Name:      "uptime_session_recording",
			Help:      "1 while an uptime record is open",
		}),
		uptimeSleeping: prom.NewGauge(prom.GaugeOpts{
			Namespace: "worklog",
			Name:      "uptime_session_sleeping",
			Help:      "1 while a sleep record is open",
		}),
	}
	reg.MustRegister(pr.requestDuration, pr.reconcileOps, pr.workTransitions, pr.uptimeEvents, pr.uptimeRecording, pr.uptimeSleeping)
	return pr
}

func (p *PrometheusRecorder) ObserveRequest(method, route string, status int, d time.Duration) {
	p.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncReconcileOp(kind, op string, result ResultLabel) {
	p.reconcileOps.WithLabelValues(kind, op, string(result)).Inc()
}

func (p *PrometheusRecorder) IncWorkTransition(op string, result ResultLabel) {
	p.workTransitions.WithLabelValues(op, string(result)).Inc()
}

func (p *PrometheusRecorder) IncUptimeEvent(event string, result ResultLabel) {
	p.uptimeEvents.WithLabelValues(event, string(result)).Inc()
}

func (p *PrometheusRecorder) SetUptimeSession(recording, sleeping bool) {
	p.uptimeRecording.Set(boolGauge(recording))
	p.uptimeSleeping.Set(boolGauge(sleeping))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// HTTPHandler serves the metrics registered on reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
