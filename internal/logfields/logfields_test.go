package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHelperKeyNames(t *testing.T) {
	id := uuid.MustParse("6f1c2a9e-3b4d-4f6a-8c1e-2d3f4a5b6c7d")
	cases := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"RecordID", RecordID(id), KeyRecordID, id.String()},
		{"ParentID", ParentID(id), KeyParentID, id.String()},
		{"Kind", Kind("record"), KeyKind, "record"},
		{"Op", Op("insert"), KeyOp, "insert"},
		{"State", State("at_work"), KeyState, "at_work"},
		{"Queue", Queue("sync"), KeyQueue, "sync"},
		{"Method", Method("PUT"), KeyMethod, "PUT"},
		{"Route", Route("/records/:id"), KeyRoute, "/records/:id"},
		{"RequestID", RequestID("rid"), KeyRequestID, "rid"},
		{"URL", URL("http://example"), KeyURL, "http://example"},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.wantKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.wantKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.wantVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.wantVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Month(time.December); a.Value.Int64() != 12 {
		t.Fatalf("expected month 12, got %v", a.Value)
	}
	if a := Duration(1500 * time.Microsecond); a.Value.Float64() != 1.5 {
		t.Fatalf("expected 1.5ms, got %v", a.Value)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should log empty string, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr %v", a)
	}
}
