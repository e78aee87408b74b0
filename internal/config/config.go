// Package config loads the scopeplan settings file.
//
// Settings resolve in three layers, lowest precedence first: built-in
// defaults, the YAML file (~/.scopeplan/config.yaml unless --config names
// another), and command-line flags applied by the CLI after Load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
	"github.com/felixgeelhaar/scopeplan/internal/log"
	"github.com/felixgeelhaar/scopeplan/internal/scope"
	"github.com/felixgeelhaar/scopeplan/internal/telemetry"
)

const (
	// DirName is the per-user settings directory under $HOME
	DirName = ".scopeplan"
	// FileName is the settings file inside DirName
	FileName = "config.yaml"
	// DefaultCatalogPath is used when neither the file nor --catalog names one
	DefaultCatalogPath = "catalog.yaml"
)

// Config is the full settings tree
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LogConfig selects the diagnostic logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CatalogConfig locates the component catalog
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// AnalyzerConfig tunes the impact analyzer
type AnalyzerConfig struct {
	ProtocolComponent string  `yaml:"protocol_component"`
	ManifestEntry     string  `yaml:"manifest_entry"`
	ParallelFactor    float64 `yaml:"parallel_factor"`
}

// TelemetryConfig controls OpenTelemetry export
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate"`
	Environment string  `yaml:"environment"`
}

// MetricsConfig controls the Prometheus textfile written after each command
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Catalog: CatalogConfig{
			Path: DefaultCatalogPath,
		},
		Analyzer: AnalyzerConfig{
			ProtocolComponent: string(scope.DefaultProtocolComponent),
			ParallelFactor:    scope.DefaultParallelFactor,
		},
		Telemetry: TelemetryConfig{
			SampleRate:  1.0,
			Environment: "development",
		},
	}
}

// DefaultPath returns ~/.scopeplan/config.yaml, or "" when the home
// directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DirName, FileName)
}

// Load reads settings from path over the defaults. An empty path means
// DefaultPath, which may be absent; an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-selected settings file
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return Config{}, errors.NewFileNotFoundError(path)
			}
			return cfg, nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.NewFileUnmarshalError(path, "YAML", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field and joins all problems into one CFG-001 error
func (c Config) Validate() error {
	var problems []string

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}

	if c.Analyzer.ParallelFactor <= 0 || c.Analyzer.ParallelFactor > 1 {
		problems = append(problems, fmt.Sprintf("analyzer.parallel_factor %v must be in (0, 1]", c.Analyzer.ParallelFactor))
	}

	if c.Analyzer.ProtocolComponent != "" {
		if err := component.ID(c.Analyzer.ProtocolComponent).Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("analyzer.protocol_component: %v", err))
		}
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		problems = append(problems, fmt.Sprintf("telemetry.sample_rate %v must be in [0, 1]", c.Telemetry.SampleRate))
	}

	if len(problems) == 0 {
		return nil
	}

	return errors.New(errors.ErrCodeConfigInvalid, "invalid configuration: "+strings.Join(problems, "; ")).
		WithSuggestion(fmt.Sprintf("Edit %s or pass --config with a valid file", displayPath()))
}

// LoggerConfig converts the log section into a log.Config
func (c Config) LoggerConfig() log.Config {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(c.Log.Level)
	lc.Format = log.ParseFormat(c.Log.Format)
	lc.AddSource = lc.Level == log.LevelDebug
	return lc
}

// TelemetryConfig converts the telemetry section into a telemetry.Config
func (c Config) TelemetryConfig(serviceVersion string) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = serviceVersion
	tc.Enabled = c.Telemetry.Enabled
	tc.Endpoint = c.Telemetry.Endpoint
	tc.SampleRate = c.Telemetry.SampleRate
	if c.Telemetry.Environment != "" {
		tc.Environment = c.Telemetry.Environment
	}
	return tc
}

// AnalyzerOptions converts the analyzer section into scope options
func (c Config) AnalyzerOptions() []scope.Option {
	opts := []scope.Option{
		scope.WithProtocolComponent(component.ID(c.Analyzer.ProtocolComponent)),
		scope.WithParallelFactor(c.Analyzer.ParallelFactor),
	}
	if c.Analyzer.ManifestEntry != "" {
		opts = append(opts, scope.WithManifestEntry(c.Analyzer.ManifestEntry))
	}
	return opts
}

func displayPath() string {
	if p := DefaultPath(); p != "" {
		return p
	}
	return filepath.Join("~", DirName, FileName)
}
