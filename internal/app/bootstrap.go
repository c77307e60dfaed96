package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	repository "github.com/okian/tariffa/internal/adapters/repository"
	"github.com/okian/tariffa/internal/config"
	"github.com/okian/tariffa/pkg/logger"
)

// OptionsFromConfig maps cfg to service options. The rate store is not included.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithMaxRuns(cfg.MaxRuns),
		WithLocale(cfg.Locale),
		WithQuoteTimeout(cfg.QuoteTimeout),
		WithJobTimeout(cfg.JobTimeout),
	}
}

// OpenRateStore builds the configured rate store, wrapped in the redis cache
// when redis_addr is set. The returned close func releases its connections.
func OpenRateStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.RateStore, func() error, error) {
	var (
		store   repository.RateStore
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	switch cfg.RateStore {
	case config.RateStorePostgres:
		db, err := repository.OpenPostgres(cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		if err := ping(ctx, db); err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		pg := repository.NewPostgresRateStore(db)
		if cfg.PostgresMigrate {
			if err := pg.Migrate(ctx); err != nil {
				_ = closeAll()
				return nil, nil, err
			}
		}
		store = pg
	default:
		mem := repository.NewMemoryRateStore()
		if cfg.RateFile != "" {
			cards, err := repository.LoadRateCardsFile(cfg.RateFile)
			if err != nil {
				return nil, nil, err
			}
			if err := mem.Put(ctx, cards...); err != nil {
				return nil, nil, err
			}
			log.Info(ctx, "rate cards loaded", logger.String("file", cfg.RateFile), logger.Int("count", len(cards)))
		}
		store = mem
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		})
		closers = append(closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			// the cache degrades to the store on every call; keep going
			log.Warn(ctx, "redis ping failed", logger.String("addr", cfg.RedisAddr), logger.Error(err))
		}
		store = repository.NewCachedRateStore(store, client,
			repository.WithTTL(cfg.RateCacheTTL),
			repository.WithCacheLogger(log.Named("rate-cache")),
		)
	}
	return store, closeAll, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
