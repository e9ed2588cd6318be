package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.Info(context.Background(), "frame rendered",
		String("surface", "headless"),
		Int("frame", 3),
		Float64("sim_seconds", 1.5),
		Err(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "frame rendered" || rec["surface"] != "headless" || rec["error"] != "boom" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["frame"] != float64(3) || rec["sim_seconds"] != 1.5 {
		t.Fatalf("numeric fields mismatch: %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("level filtering failed: %q", out)
	}
}

func TestWithRunLoggerReusesRunID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx, log := WithRunLogger(context.Background(), base)
	id := RunIDFromContext(ctx)
	if id == "" {
		t.Fatalf("expected run_id on context")
	}

	ctx2, _ := EnsureRunID(ctx)
	if got := RunIDFromContext(ctx2); got != id {
		t.Fatalf("EnsureRunID replaced run_id %q with %q", id, got)
	}

	log.Info(ctx, "hello")
	if !strings.Contains(buf.String(), id) {
		t.Fatalf("run_id %q missing from output %q", id, buf.String())
	}
	if LoggerFromContext(ctx) == nil {
		t.Fatalf("logger missing from context")
	}
}

func TestLoggerFromContextDefaultsToNoop(t *testing.T) {
	l := LoggerFromContext(context.Background())
	if _, ok := l.(noopLogger); !ok {
		t.Fatalf("expected noop logger, got %T", l)
	}
	// Must not panic.
	l.With(String("k", "v")).Error(context.Background(), "dropped")
}
