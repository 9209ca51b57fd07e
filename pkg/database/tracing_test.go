package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		tp.Shutdown(context.Background()) //nolint:errcheck
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func TestTraceQuery_Success(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "redis", "Read", "GET")
	end(nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}

	span := spans[0]
	if span.Name != "db.Read" {
		t.Errorf("span name = %q, want %q", span.Name, "db.Read")
	}

	attrs := make(map[string]string)
	for _, a := range span.Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	if attrs["db.system"] != "redis" {
		t.Errorf("db.system = %q, want %q", attrs["db.system"], "redis")
	}
	if attrs["db.operation"] != "Read" {
		t.Errorf("db.operation = %q, want %q", attrs["db.operation"], "Read")
	}
	if attrs["db.statement"] != "GET" {
		t.Errorf("db.statement = %q, want %q", attrs["db.statement"], "GET")
	}
	if span.Status.Code != codes.Unset {
		t.Errorf("span status = %v, want Unset", span.Status.Code)
	}
}

func TestTraceQuery_Error(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "sqlite", "Write", "INSERT ... ON CONFLICT")
	end(errors.New("database is locked"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status.Code)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected error event to be recorded on span")
	}
}

func TestTraceQuery_ChildOfCallerSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	_, end := TraceQuery(ctx, "redis", "Write", "SET")
	end(nil)
	parent.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("store span should be a child of the caller span")
	}
}

func TestSlowQueryLogging(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		err       error
		wantLog   bool
	}{
		{name: "slow", threshold: time.Nanosecond, wantLog: true},
		{name: "slow with error", threshold: time.Nanosecond, err: errors.New("disk I/O error"), wantLog: true},
		{name: "fast", threshold: time.Hour},
		{name: "disabled", threshold: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestTracer(t)

			var buf bytes.Buffer
			SetSlowQueryLogging(tt.threshold, slog.New(slog.NewJSONHandler(&buf, nil)))
			t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

			_, end := TraceQuery(context.Background(), "sqlite", "Read", "SELECT value FROM kv_entries")
			end(tt.err)

			out := buf.String()
			if got := strings.Contains(out, "slow query detected"); got != tt.wantLog {
				t.Fatalf("slow log present = %v, want %v: %s", got, tt.wantLog, out)
			}
			if tt.wantLog && !strings.Contains(out, "kv_entries") {
				t.Errorf("expected statement in log, got: %s", out)
			}
			if tt.err != nil && !strings.Contains(out, tt.err.Error()) {
				t.Errorf("expected error in log, got: %s", out)
			}
		})
	}
}

func TestSetSlowQueryLogging_Concurrent(t *testing.T) {
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			SetSlowQueryLogging(time.Duration(i)*time.Millisecond, logger)
		}
	}()
	for i := 0; i < 100; i++ {
		getSlowQueryConfig()
	}
	<-done
}
