package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitWithOptionsWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithOptions("checkin-test", Options{Output: &buf, Level: "debug"})
	t.Cleanup(func() { Logger = zerolog.Nop() })

	Info(context.Background()).Str("event_id", "7").Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if line["service"] != "checkin-test" {
		t.Errorf("service = %v, want checkin-test", line["service"])
	}
	if line["event_id"] != "7" {
		t.Errorf("event_id = %v, want 7", line["event_id"])
	}
	if _, ok := line["trace_id"]; ok {
		t.Error("trace_id must be absent without a span in the context")
	}
}

func TestSetLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	SetLevel("nonsense")
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("GlobalLevel() = %v, want info", got)
	}

	SetLevel("warn")
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("GlobalLevel() = %v, want warn", got)
	}
}
