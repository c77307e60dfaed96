package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/tariff"
	"github.com/okian/tariffa/pkg/logger"
	"github.com/okian/tariffa/pkg/metrics"
)

const (
	defaultCacheTTL    = 5 * time.Minute
	defaultCachePrefix = "tariffa:rates:"
)

// CachedRateStore caches candidate lists of another store in redis. Redis
// failures fall through to the wrapped store.
type CachedRateStore struct {
	next   RateStore
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    logger.Logger
}

// NewCachedRateStore wraps next with a redis cache.
func NewCachedRateStore(next RateStore, client redis.UniversalClient, opts ...CacheOption) *CachedRateStore {
	c := &CachedRateStore{
		next:   next,
		client: client,
		ttl:    defaultCacheTTL,
		prefix: defaultCachePrefix,
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements RateStore.
func (c *CachedRateStore) Name() string { return "redis+" + c.next.Name() }

// Key returns the cache key of q. Parts are path-escaped so an id holding
// the separator cannot collide with another query.
func (c *CachedRateStore) Key(q tariff.Query) string {
	parts := []string{q.ClientID, string(q.Kind), q.LocationID, q.SupplierID,
		model.DateOf(q.On).Format(model.DateLayout)}
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.prefix + strings.Join(parts, "|")
}

// Candidates serves q from redis, loading and storing it on a miss.
func (c *CachedRateStore) Candidates(ctx context.Context, q tariff.Query) ([]model.RateCardEntry, error) {
	key := c.Key(q)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rows []model.RateCardEntry
		if jerr := json.Unmarshal(raw, &rows); jerr == nil {
			metrics.RecordRateCache("hit")
			return rows, nil
		}
		c.log.Warn(ctx, "dropping corrupt cache entry", logger.String("key", key))
		metrics.RecordRateCache("error")
	case errors.Is(err, redis.Nil):
		metrics.RecordRateCache("miss")
	default:
		c.log.Warn(ctx, "rate cache unavailable", logger.String("key", key), logger.Error(err))
		metrics.RecordRateCache("error")
	}

	rows, err := c.next.Candidates(ctx, q)
	if err != nil {
		return nil, err
	}
	if payload, jerr := json.Marshal(rows); jerr == nil {
		if serr := c.client.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.log.Warn(ctx, "rate cache write failed", logger.String("key", key), logger.Error(serr))
		}
	}
	return rows, nil
}

// Put writes through to the wrapped store and drops every cached list.
func (c *CachedRateStore) Put(ctx context.Context, entries ...model.RateCardEntry) error {
	w, ok := c.next.(RateWriter)
	if !ok {
		return ErrReadOnly
	}
	if err := w.Put(ctx, entries...); err != nil {
		return err
	}
	_, err := c.Invalidate(ctx)
	return err
}

// Invalidate deletes every key under the cache prefix and returns how many were removed.
func (c *CachedRateStore) Invalidate(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scan cache: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("invalidate cache: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
