package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cerrors "github.com/vnykmshr/cadence/pkg/common/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Schedule.PoolSize)
	assert.Equal(t, "sched", cfg.Schedule.NamePrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "cadence", cfg.Metrics.Namespace)
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
schedule:
  pool_size: 4
  name_prefix: report
  task_timeout: 1500ms
log:
  level: debug
  development: true
metrics:
  enabled: true
`)
	cfg, err := Parse(data, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Schedule.PoolSize)
	assert.Equal(t, "report", cfg.Schedule.NamePrefix)
	assert.Equal(t, 1500*time.Millisecond, cfg.Schedule.TaskTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "cadence", cfg.Metrics.Namespace, "unset keys keep their defaults")
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"schedule": {"pool_size": 3}, "metrics": {"namespace": "app"}}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Schedule.PoolSize)
	assert.Equal(t, "sched", cfg.Schedule.NamePrefix)
	assert.Equal(t, "app", cfg.Metrics.Namespace)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("schedule: [unclosed"), FormatYAML)
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = Parse([]byte(`{}`), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Parse([]byte("schedule:\n  pool_size: 0\n"), FormatYAML)
	assert.True(t, cerrors.IsValidationError(err))

	_, err = Parse([]byte("log:\n  level: chatty\n"), FormatYAML)
	assert.True(t, cerrors.IsValidationError(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "cadence.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("schedule:\n  pool_size: 5\n"), 0o600))
	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Schedule.PoolSize)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(dir, "cadence.ini"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Builders(t *testing.T) {
	cfg := Default()
	cfg.Schedule.TaskTimeout = time.Second

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	defer func() { _ = logger.Sync() }()

	assert.Nil(t, cfg.MetricsRegistry(prometheus.NewRegistry()), "metrics disabled by default")
	cfg.Metrics.Enabled = true
	m := cfg.MetricsRegistry(prometheus.NewRegistry())
	require.NotNil(t, m)

	sc := cfg.SchedulerConfig(zap.NewNop(), m)
	assert.Equal(t, 2, sc.Workers)
	assert.Equal(t, "sched", sc.NamePrefix)
	assert.Equal(t, time.Second, sc.TaskTimeout)
	assert.Same(t, m, sc.Metrics)
}
