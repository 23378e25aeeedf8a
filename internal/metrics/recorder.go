package metrics

import "time"

type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

func Result(success bool) ResultLabel {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}

// Recorder defines observability hooks for the sync server and the trackers. Implementations
// may forward to Prometheus; NoopRecorder is the default when metrics are disabled.
type Recorder interface {
	ObserveRequest(method, route string, status int, d time.Duration)
	IncReconcileOp(kind, op string, result ResultLabel)
	IncWorkTransition(op string, result ResultLabel)
	IncUptimeEvent(event string, result ResultLabel)
	SetUptimeSession(recording, sleeping bool)
}

type NoopRecorder struct{}

func (NoopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (NoopRecorder) IncReconcileOp(string, string, ResultLabel)        {}
func (NoopRecorder) IncWorkTransition(string, ResultLabel)             {}
func (NoopRecorder) IncUptimeEvent(string, ResultLabel)                {}
func (NoopRecorder) SetUptimeSession(bool, bool)                       {}
