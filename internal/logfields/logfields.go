package logfields

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Canonical log field names shared by every package.
const (
	KeyRecordID   = "record_id"
	KeyParentID   = "parent_id"
	KeyKind       = "kind"
	KeyOp         = "op"
	KeyState      = "state"
	KeyQueue      = "queue"
	KeyJob        = "job"
	KeyYear       = "year"
	KeyMonth      = "month"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyRoute      = "route"
	KeyStatus     = "status"
	KeyRequestID  = "request_id"
	KeyRemoteAddr = "remote_addr"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeyCount      = "count"
	KeyError      = "error"
)

func RecordID(id uuid.UUID) slog.Attr  { return slog.String(KeyRecordID, id.String()) }
func ParentID(id uuid.UUID) slog.Attr  { return slog.String(KeyParentID, id.String()) }
func Kind(k string) slog.Attr          { return slog.String(KeyKind, k) }
func Op(op string) slog.Attr           { return slog.String(KeyOp, op) }
func State(s string) slog.Attr         { return slog.String(KeyState, s) }
func Queue(name string) slog.Attr      { return slog.String(KeyQueue, name) }
func Job(name string) slog.Attr        { return slog.String(KeyJob, name) }
func Year(y int) slog.Attr             { return slog.Int(KeyYear, y) }
func Month(m time.Month) slog.Attr     { return slog.Int(KeyMonth, int(m)) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Route(r string) slog.Attr         { return slog.String(KeyRoute, r) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }

func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
