package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestZerologLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(LogConfig{Level: "debug", Format: "json", Output: &buf, Service: "platekit"})
	logger.With(String("run_id", "abc")).Info("plate found",
		Int("contours", 12),
		Float64("confidence", 0.5),
		Bool("matched", true),
		Duration("elapsed", time.Millisecond),
		Error("cause", errors.New("boom")),
	)
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	checks := map[string]interface{}{
		"message":    "plate found",
		"level":      "info",
		"service":    "platekit",
		"run_id":     "abc",
		"contours":   float64(12),
		"confidence": 0.5,
		"matched":    true,
		"cause":      "boom",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Fatalf("field %s = %v, want %v", k, entry[k], want)
		}
	}
}

func TestZerologLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(LogConfig{Level: "warn", Output: &buf})
	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info and debug to be filtered, got %s", buf.String())
	}
	logger.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected error line, got %s", buf.String())
	}
}

func TestLogTracer(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewLogTracer(NewZerologLogger(LogConfig{Level: "debug", Output: &buf}))
	_, span := tracer.StartSpan(context.Background(), MetricCropTime)
	span.SetTag("width", 101)
	span.SetError(errors.New("empty"))
	span.Finish()
	out := buf.String()
	for _, want := range []string{MetricCropTime, `"width":101`, `"error":"empty"`, `"elapsed"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}
