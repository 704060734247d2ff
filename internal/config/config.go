// Package config defines the top-level configuration for the cost estimator
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by COSTSIM_* environment
// variables.
type Config struct {
	Feed     FeedConfig     `toml:"feed"`
	Input    InputConfig    `toml:"input"`
	Model    ModelConfig    `toml:"model"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// FeedConfig holds the websocket endpoint and reconnect parameters.
type FeedConfig struct {
	URL            string   `toml:"url"`
	Heartbeat      duration `toml:"heartbeat"`
	BackoffFloor   duration `toml:"backoff_floor"`
	BackoffCeiling duration `toml:"backoff_ceiling"`
}

// InputConfig holds the initial operator inputs for the hypothetical order.
type InputConfig struct {
	Quantity   float64 `toml:"quantity"`
	FeeTier    int     `toml:"fee_tier"`
	Volatility float64 `toml:"volatility"`
}

// ModelConfig holds estimator coefficients and rolling-window sizes.
type ModelConfig struct {
	Volatility       float64 `toml:"volatility"`
	Eta              float64 `toml:"eta"`
	Gamma            float64 `toml:"gamma"`
	SlippageWindow   int     `toml:"slippage_window"`
	SlippageWarmup   int     `toml:"slippage_warmup"`
	MakerTakerWindow int     `toml:"maker_taker_window"`
	MakerTakerWarmup int     `toml:"maker_taker_warmup"`
}

// PipelineConfig holds handoff-queue and archival parameters.
type PipelineConfig struct {
	QueueCapacity    int      `toml:"queue_capacity"`
	DrainInterval    duration `toml:"drain_interval"`
	EstimateChannel  string   `toml:"estimate_channel"`
	ArchiveRetention duration `toml:"archive_retention"`
	ArchiveInterval  duration `toml:"archive_interval"`
	ArchiveBatchSize int      `toml:"archive_batch_size"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// MetricsConfig holds the Prometheus endpoint parameters.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Feed: FeedConfig{
			URL:            "wss://ws.gomarket-cpp.goquant.io/ws/l2-orderbook/okx/BTC-USDT-SWAP",
			Heartbeat:      duration{30 * time.Second},
			BackoffFloor:   duration{time.Second},
			BackoffCeiling: duration{30 * time.Second},
		},
		Input: InputConfig{
			Quantity:   100.0,
			FeeTier:    1,
			Volatility: 0.02,
		},
		Model: ModelConfig{
			Volatility:       0.02,
			Eta:              0.1,
			Gamma:            0.1,
			SlippageWindow:   500,
			SlippageWarmup:   10,
			MakerTakerWindow: 1000,
			MakerTakerWarmup: 100,
		},
		Pipeline: PipelineConfig{
			QueueCapacity:    256,
			DrainInterval:    duration{100 * time.Millisecond},
			EstimateChannel:  "costsim:estimates",
			ArchiveRetention: duration{24 * time.Hour},
			ArchiveInterval:  duration{time.Hour},
			ArchiveBatchSize: 10000,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "costsim-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Mode:     "lite",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode. Lite mode runs
// the feed, pipeline, and console output with no external stores; full mode
// adds Postgres, Redis, and S3 archival.
var validModes = map[string]bool{
	"lite": true,
	"full": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: lite, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Feed
	if c.Feed.URL == "" {
		errs = append(errs, "feed: url must not be empty")
	}
	if c.Feed.Heartbeat.Duration <= 0 {
		errs = append(errs, "feed: heartbeat must be positive")
	}
	if c.Feed.BackoffFloor.Duration <= 0 {
		errs = append(errs, "feed: backoff_floor must be positive")
	}
	if c.Feed.BackoffCeiling.Duration < c.Feed.BackoffFloor.Duration {
		errs = append(errs, "feed: backoff_ceiling must not be below backoff_floor")
	}

	// Input
	if c.Input.Quantity <= 0 {
		errs = append(errs, "input: quantity must be > 0")
	}
	if c.Input.FeeTier < 1 || c.Input.FeeTier > 3 {
		errs = append(errs, fmt.Sprintf("input: fee_tier must be 1-3, got %d", c.Input.FeeTier))
	}
	if c.Input.Volatility < 0 || c.Input.Volatility > 1 {
		errs = append(errs, "input: volatility must be in [0, 1]")
	}

	// Model
	if c.Model.Eta <= 0 {
		errs = append(errs, "model: eta must be > 0")
	}
	if c.Model.Gamma <= 0 {
		errs = append(errs, "model: gamma must be > 0")
	}
	if c.Model.SlippageWindow < 1 {
		errs = append(errs, "model: slippage_window must be >= 1")
	}
	if c.Model.SlippageWarmup < 1 {
		errs = append(errs, "model: slippage_warmup must be >= 1")
	}
	if c.Model.MakerTakerWindow < c.Model.MakerTakerWarmup {
		errs = append(errs, "model: maker_taker_window must not be below maker_taker_warmup")
	}

	// Pipeline
	if c.Pipeline.QueueCapacity < 1 {
		errs = append(errs, "pipeline: queue_capacity must be >= 1")
	}
	if c.Pipeline.DrainInterval.Duration <= 0 {
		errs = append(errs, "pipeline: drain_interval must be positive")
	}

	// External stores are only required in full mode.
	if strings.ToLower(c.Mode) == "full" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}

		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}

		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics: addr must not be empty when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
