package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "full"
log_level = "debug"

[feed]
url = "wss://example.com/ws/l2"
heartbeat = "10s"

[input]
quantity = 250.0
fee_tier = 2

[pipeline]
queue_capacity = 64
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "full", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "wss://example.com/ws/l2", cfg.Feed.URL)
	assert.Equal(t, 10*time.Second, cfg.Feed.Heartbeat.Duration)
	assert.Equal(t, 250.0, cfg.Input.Quantity)
	assert.Equal(t, 2, cfg.Input.FeeTier)
	assert.Equal(t, 64, cfg.Pipeline.QueueCapacity)

	// Untouched sections keep their defaults.
	assert.Equal(t, time.Second, cfg.Feed.BackoffFloor.Duration)
	assert.Equal(t, 0.1, cfg.Model.Eta)
	assert.Equal(t, "costsim:estimates", cfg.Pipeline.EstimateChannel)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[input]
quantity = 250.0
`)

	t.Setenv("COSTSIM_INPUT_QUANTITY", "500")
	t.Setenv("COSTSIM_FEED_HEARTBEAT", "45s")
	t.Setenv("COSTSIM_MODE", "full")
	t.Setenv("COSTSIM_METRICS_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500.0, cfg.Input.Quantity)
	assert.Equal(t, 45*time.Second, cfg.Feed.Heartbeat.Duration)
	assert.Equal(t, "full", cfg.Mode)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Input.FeeTier = 7
	cfg.Model.Eta = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "fee_tier must be 1-3")
	assert.Contains(t, err.Error(), "eta must be > 0")
}

func TestValidateLiteModeSkipsStoreChecks(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "lite"
	cfg.Postgres = PostgresConfig{}
	cfg.Redis = RedisConfig{}
	cfg.S3 = S3Config{}

	assert.NoError(t, cfg.Validate())
}

func TestValidateFullModeRequiresStores(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "full"
	cfg.Postgres.Host = ""
	cfg.Redis.Addr = ""
	cfg.S3.Bucket = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: host")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "s3: bucket")
}

func TestValidateBackoffOrdering(t *testing.T) {
	cfg := Defaults()
	cfg.Feed.BackoffFloor = duration{time.Minute}
	cfg.Feed.BackoffCeiling = duration{time.Second}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backoff_ceiling")
}
