package repository

import (
	"time"

	"github.com/okian/tariffa/pkg/logger"
)

// CacheOption configures a CachedRateStore.
type CacheOption func(*CachedRateStore)

// WithTTL sets how long cached candidate lists live.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CachedRateStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the redis key prefix.
func WithKeyPrefix(prefix string) CacheOption {
	return func(c *CachedRateStore) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithCacheLogger sets the logger used for cache failures.
func WithCacheLogger(l logger.Logger) CacheOption {
	return func(c *CachedRateStore) {
		if l != nil {
			c.log = l
		}
	}
}

// PostgresOption configures a PostgresRateStore.
type PostgresOption func(*PostgresRateStore)

// WithQueryTimeout bounds every statement issued by the store.
func WithQueryTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresRateStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTable overrides the rate card table name.
func WithTable(name string) PostgresOption {
	return func(s *PostgresRateStore) {
		if name != "" {
			s.table = name
		}
	}
}

// ReportOption configures a ReportStore.
type ReportOption func(*ReportStore)

// WithMaxRuns caps retained runs; the oldest completed runs are dropped first.
// Zero keeps every run.
func WithMaxRuns(n int) ReportOption {
	return func(s *ReportStore) {
		if n >= 0 {
			s.maxRuns = n
		}
	}
}

// WithNow overrides the clock used to stamp runs.
func WithNow(now func() time.Time) ReportOption {
	return func(s *ReportStore) {
		if now != nil {
			s.now = now
		}
	}
}
