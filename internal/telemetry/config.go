package telemetry

// Config holds configuration for tracing and OTLP metrics
type Config struct {
	// ServiceName is the name of the service
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment is the deployment environment (dev, staging, production)
	Environment string

	// Enabled determines whether telemetry is enabled.
	// When false, noop providers are used.
	Enabled bool

	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	// If empty, spans and metrics are not exported.
	Endpoint string

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	SampleRate float64
}

// DefaultConfig returns the CLI default: telemetry disabled
func DefaultConfig() Config {
	return Config{
		ServiceName:    "scopeplan",
		ServiceVersion: "dev",
		Environment:    "development",
		Enabled:        false,
		SampleRate:     1.0,
	}
}

// DevelopmentConfig enables tracing without export
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	return cfg
}

// ProductionConfig enables export to endpoint and samples 10% of traces
func ProductionConfig(endpoint string) Config {
	return Config{
		ServiceName:    "scopeplan",
		ServiceVersion: "unknown",
		Environment:    "production",
		Enabled:        true,
		Endpoint:       endpoint,
		SampleRate:     0.1,
	}
}
