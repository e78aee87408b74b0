package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a tracer provider backed by an in-memory exporter
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	providerMu.Lock()
	previous := globalProvider
	globalProvider = tp
	providerMu.Unlock()

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		providerMu.Lock()
		globalProvider = previous
		providerMu.Unlock()
	})
	return exporter
}

func attr(kvs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range kvs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartCommandSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	ctx := context.Background()

	spanCtx, span := StartCommandSpan(ctx, "analyze")
	if spanCtx == ctx {
		t.Error("expected new context with span, got same context")
	}
	RecordSuccess(span, attribute.Int("affected", 3))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != "command.analyze" {
		t.Errorf("span name = %q, want %q", got.Name, "command.analyze")
	}
	if got.Status.Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status.Code)
	}
	if v, ok := attr(got.Attributes, "affected"); !ok || v.AsInt64() != 3 {
		t.Errorf("affected attribute = %v, want 3", v)
	}
}

func TestStartAnalysisSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartAnalysisSpan(context.Background(), "run-1", "module.dashboard", "module", "enhance")
	RecordDuration(span, "analysis", 1500*time.Millisecond)
	span.End()

	got := exporter.GetSpans()[0]
	if got.Name != "Analyzer.AnalyzeImpact" {
		t.Errorf("span name = %q", got.Name)
	}
	for key, want := range map[string]string{
		"scopeplan.run_id": "run-1",
		"scopeplan.target": "module.dashboard",
		"scopeplan.scope":  "module",
		"scopeplan.action": "enhance",
	} {
		if v, ok := attr(got.Attributes, key); !ok || v.AsString() != want {
			t.Errorf("%s = %q, want %q", key, v.AsString(), want)
		}
	}
	if v, ok := attr(got.Attributes, "analysis_ms"); !ok || v.AsInt64() != 1500 {
		t.Errorf("analysis_ms = %v, want 1500", v)
	}
}

func TestRecordError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartCommandSpan(context.Background(), "validate")
	RecordError(span, nil)
	RecordError(span, errors.New("catalog invalid"))
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status.Code)
	}
	if got.Status.Description != "catalog invalid" {
		t.Errorf("description = %q", got.Status.Description)
	}
	if len(got.Events) != 1 {
		t.Errorf("expected 1 error event, got %d", len(got.Events))
	}
}
