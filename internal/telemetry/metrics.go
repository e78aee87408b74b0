package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var (
	globalMeterProvider   metric.MeterProvider
	globalMetricsShutdown func(context.Context) error
	meterMu               sync.RWMutex
	commandMetrics        *CommandMetrics
	metricsOnce           sync.Once
)

// CommandMetrics are the OTLP instruments recorded per CLI command.
// Planning internals are measured with Prometheus in internal/metrics.
type CommandMetrics struct {
	Invocations metric.Int64Counter
	Duration    metric.Float64Histogram
	Errors      metric.Int64Counter
}

// InitMetricsProvider installs the global meter provider. Metrics are only
// exported when the config is enabled and names an endpoint.
func InitMetricsProvider(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	meterMu.Lock()
	defer meterMu.Unlock()

	globalMetricsShutdown = func(context.Context) error { return nil }
	globalMeterProvider = otel.GetMeterProvider()

	if cfg.Enabled && cfg.Endpoint != "" {
		res, err := createResource(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource for metrics: %w", err)
		}
		exporter, err := otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))),
		)
		globalMeterProvider = mp
		otel.SetMeterProvider(mp)
		globalMetricsShutdown = mp.Shutdown
	}

	if err := initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return globalMetricsShutdown, nil
}

// initMetrics creates the instruments once. Callers hold meterMu.
func initMetrics() error {
	var initErr error
	metricsOnce.Do(func() {
		meter := globalMeterProvider.Meter(instrumentation)
		m := &CommandMetrics{}

		if m.Invocations, initErr = meter.Int64Counter(
			"scopeplan.command.invocations",
			metric.WithDescription("Total number of command invocations"),
			metric.WithUnit("{invocation}"),
		); initErr != nil {
			return
		}
		if m.Duration, initErr = meter.Float64Histogram(
			"scopeplan.command.duration",
			metric.WithDescription("Command execution duration in seconds"),
			metric.WithUnit("s"),
		); initErr != nil {
			return
		}
		if m.Errors, initErr = meter.Int64Counter(
			"scopeplan.command.errors",
			metric.WithDescription("Total number of failed commands by error code"),
			metric.WithUnit("{error}"),
		); initErr != nil {
			return
		}
		commandMetrics = m
	})
	return initErr
}

func getCommandMetrics() *CommandMetrics {
	meterMu.RLock()
	defer meterMu.RUnlock()
	return commandMetrics
}

// RecordCommand records one finished command. errorCode is empty on success.
func RecordCommand(ctx context.Context, command string, duration time.Duration, errorCode string) {
	m := getCommandMetrics()
	if m == nil {
		return
	}

	status := "success"
	if errorCode != "" {
		status = "error"
	}
	m.Invocations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	))
	m.Duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("command", command)))
	if errorCode != "" {
		m.Errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("error_code", errorCode),
		))
	}
}

// ShutdownMetrics flushes and stops the meter provider
func ShutdownMetrics(ctx context.Context) error {
	meterMu.RLock()
	shutdown := globalMetricsShutdown
	meterMu.RUnlock()

	if shutdown != nil {
		return shutdown(ctx)
	}
	return nil
}
