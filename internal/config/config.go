// Package config loads the cadence application configuration from YAML or
// JSON with koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vnykmshr/cadence/pkg/common/validation"
	"github.com/vnykmshr/cadence/pkg/metrics"
	"github.com/vnykmshr/cadence/pkg/scheduling/scheduler"
)

var (
	// ErrUnsupportedFormat is returned for anything but YAML or JSON.
	ErrUnsupportedFormat = errors.New("config: unsupported format")
	// ErrParseFailed wraps parser and decoding errors.
	ErrParseFailed = errors.New("config: parse failed")
)

// Format is a configuration file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config is the application configuration.
type Config struct {
	Schedule ScheduleConfig `koanf:"schedule"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ScheduleConfig configures the schedulers.
type ScheduleConfig struct {
	PoolSize    int           `koanf:"pool_size"`
	NamePrefix  string        `koanf:"name_prefix"`
	TaskTimeout time.Duration `koanf:"task_timeout"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Schedule: ScheduleConfig{
			PoolSize:   2,
			NamePrefix: scheduler.DefaultNamePrefix,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Namespace: metrics.DefaultNamespace,
		},
	}
}

// Load reads path, choosing the parser from its extension. An empty path
// returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, format)
}

// Parse decodes data over Default and validates the result.
func Parse(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func detectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := validation.ValidatePositive("config", "schedule.pool_size", c.Schedule.PoolSize); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("config", "schedule.name_prefix", c.Schedule.NamePrefix); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("config", "schedule.task_timeout", c.Schedule.TaskTimeout); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return validation.ValidateOneOf("config", "log.level", c.Log.Level, "debug", "info", "warn", "error")
	}
	return nil
}

// NewLogger builds the zap logger described by c.Log.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// MetricsRegistry returns the metrics registry described by c.Metrics on
// reg, or nil when metrics are disabled.
func (c Config) MetricsRegistry(reg prometheus.Registerer) *metrics.Registry {
	return metrics.Config{
		Enabled:   c.Metrics.Enabled,
		Registry:  reg,
		Namespace: c.Metrics.Namespace,
	}.Build()
}

// SchedulerConfig maps c.Schedule onto a scheduler.Config.
func (c Config) SchedulerConfig(logger *zap.Logger, m *metrics.Registry) scheduler.Config {
	return scheduler.Config{
		Workers:     c.Schedule.PoolSize,
		NamePrefix:  c.Schedule.NamePrefix,
		TaskTimeout: c.Schedule.TaskTimeout,
		Logger:      logger,
		Metrics:     m,
	}
}
