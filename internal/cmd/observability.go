package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/felixgeelhaar/scopeplan/internal/buildinfo"
	"github.com/felixgeelhaar/scopeplan/internal/config"
	"github.com/felixgeelhaar/scopeplan/internal/log"
	"github.com/felixgeelhaar/scopeplan/internal/metrics"
	"github.com/felixgeelhaar/scopeplan/internal/telemetry"
)

// setup resolves configuration and configures logging and telemetry.
// Precedence is flags, then SCOPEPLAN_* environment, then the config file.
func (a *app) setup(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	applyEnv(&cfg)
	a.applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.setupLogging(stderr)
	a.setupTelemetry(ctx)
	return nil
}

func applyEnv(cfg *config.Config) {
	if v := os.Getenv("SCOPEPLAN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SCOPEPLAN_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SCOPEPLAN_TELEMETRY_ENDPOINT"); v != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Endpoint = v
	}
}

func (a *app) applyFlags(cfg *config.Config) {
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	if a.flags.logFormat != "" {
		cfg.Log.Format = a.flags.logFormat
	}
	if a.flags.catalogPath != "" {
		cfg.Catalog.Path = a.flags.catalogPath
	}
	if a.flags.metricsFile != "" {
		cfg.Metrics.TextfilePath = a.flags.metricsFile
	}
}

func (a *app) setupLogging(stderr io.Writer) {
	lc := a.cfg.LoggerConfig()
	lc.Output = stderr
	a.logger = log.New(lc)
	log.SetDefaultLogger(a.logger)
}

func (a *app) setupTelemetry(ctx context.Context) {
	tc := a.cfg.TelemetryConfig(buildinfo.Version)

	shutdown, err := telemetry.InitProvider(ctx, tc)
	if err != nil {
		a.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		a.cleanups = append(a.cleanups, func() { a.flush("tracing", shutdown) })
	}

	shutdownMetrics, err := telemetry.InitMetricsProvider(ctx, tc)
	if err != nil {
		a.logger.Warn("failed to initialize OTLP metrics", "error", err)
	} else {
		a.cleanups = append(a.cleanups, func() { a.flush("OTLP metrics", shutdownMetrics) })
	}

	if tc.Enabled {
		a.logger.Info("telemetry enabled", "endpoint", tc.Endpoint, "sample_rate", tc.SampleRate)
	}
}

func (a *app) flush(what string, shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		a.logger.Warn(fmt.Sprintf("failed to flush %s", what), "error", err)
	}
}

// shutdown writes the metrics textfile and flushes telemetry
func (a *app) shutdown() {
	if path := a.cfg.Metrics.TextfilePath; path != "" {
		if err := metrics.WriteTextfile(path, a.registry); err != nil {
			a.logger.Warn("failed to write metrics textfile", "path", path, "error", err)
		}
	}
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}
