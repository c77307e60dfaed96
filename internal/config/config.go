// Package config defines service configuration and its loading from
// defaults, an optional YAML file, a dotenv file and the environment.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Rate store backends.
const (
	RateStoreMemory   = "memory"
	RateStorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is console or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the reconciliation queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of reconciliation workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many item keys the deduper remembers.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxRuns caps retained reconciliation reports.
	MaxRuns int `koanf:"max_runs"`
	// MaxBatchItems caps items per reconciliation submission.
	MaxBatchItems int `koanf:"max_batch_items"`

	// Locale selects the holiday calendar.
	Locale string `koanf:"locale"`

	// RateStore is memory or postgres.
	RateStore string `koanf:"rate_store"`
	// RateFile seeds the memory store from YAML.
	RateFile string `koanf:"rate_file"`

	PostgresDSN      string `koanf:"postgres_dsn"`
	PostgresMaxConns int    `koanf:"postgres_max_conns"`
	// PostgresMigrate creates the rate card table on start.
	PostgresMigrate bool `koanf:"postgres_migrate"`

	// RedisAddr enables the rate card cache when set.
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RateCacheTTL  time.Duration `koanf:"rate_cache_ttl"`

	QuoteTimeout    time.Duration `koanf:"quote_timeout"`
	JobTimeout      time.Duration `koanf:"job_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "console",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU() * 2,
		DedupeSize:       50_000,
		MaxRuns:          1000,
		MaxBatchItems:    10_000,
		Locale:           "it",
		RateStore:        RateStoreMemory,
		PostgresMaxConns: 10,
		RateCacheTTL:     5 * time.Minute,
		QuoteTimeout:     5 * time.Second,
		JobTimeout:       30 * time.Second,
		ShutdownTimeout:  15 * time.Second,
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RateStore != RateStoreMemory && c.RateStore != RateStorePostgres:
		return fmt.Errorf("%w: unknown rate_store %q", ErrInvalidConfig, c.RateStore)
	case c.RateStore == RateStorePostgres && c.PostgresDSN == "":
		return fmt.Errorf("%w: rate_store postgres needs postgres_dsn", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.LogFormat != "console" && c.LogFormat != "json":
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
