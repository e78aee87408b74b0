package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMetrics initializes the instruments against a manual reader
func setupTestMetrics(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	meterMu.Lock()
	globalMeterProvider = mp
	metricsOnce = sync.Once{}
	commandMetrics = nil
	err := initMetrics()
	meterMu.Unlock()
	if err != nil {
		t.Fatalf("initMetrics failed: %v", err)
	}

	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordCommandSuccess(t *testing.T) {
	reader := setupTestMetrics(t)

	RecordCommand(context.Background(), "analyze", 250*time.Millisecond, "")

	got := collect(t, reader)
	sum, ok := got["scopeplan.command.invocations"].Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Fatalf("unexpected invocations data: %+v", got["scopeplan.command.invocations"].Data)
	}
	if _, ok := got["scopeplan.command.duration"]; !ok {
		t.Error("expected duration histogram")
	}
	if _, ok := got["scopeplan.command.errors"]; ok {
		t.Error("successful command should not record an error")
	}
}

func TestRecordCommandError(t *testing.T) {
	reader := setupTestMetrics(t)

	RecordCommand(context.Background(), "validate", time.Second, "CAT-002")

	got := collect(t, reader)
	errs, ok := got["scopeplan.command.errors"].Data.(metricdata.Sum[int64])
	if !ok || len(errs.DataPoints) != 1 {
		t.Fatalf("unexpected errors data: %+v", got["scopeplan.command.errors"].Data)
	}
	code, _ := errs.DataPoints[0].Attributes.Value("error_code")
	if code.AsString() != "CAT-002" {
		t.Errorf("error_code = %q, want CAT-002", code.AsString())
	}
}

func TestRecordCommandWithoutInitIsNoop(t *testing.T) {
	meterMu.Lock()
	saved := commandMetrics
	commandMetrics = nil
	meterMu.Unlock()
	defer func() {
		meterMu.Lock()
		commandMetrics = saved
		meterMu.Unlock()
	}()

	RecordCommand(context.Background(), "analyze", time.Second, "")
}

func TestInitMetricsProviderDisabled(t *testing.T) {
	shutdown, err := InitMetricsProvider(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("InitMetricsProvider failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if err := ShutdownMetrics(context.Background()); err != nil {
		t.Fatalf("ShutdownMetrics failed: %v", err)
	}
}
