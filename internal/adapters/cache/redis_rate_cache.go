package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parcel-delivery-service/internal/domain"
)

// RedisRateCache stores the single current exchange rate in a shared Redis
// key so multiple processes observe the same value.
//
// The key carries no Redis TTL: freshness is decided by the rate service
// from FetchedAt, and a stale value must stay readable as the degraded-mode
// fallback.
type RedisRateCache struct {
	rdb *redis.Client
	key string
}

type RedisRateCacheOption func(*RedisRateCache)

func WithRateKey(key string) RedisRateCacheOption {
	return func(c *RedisRateCache) { c.key = key }
}

func NewRedisRateCache(rdb *redis.Client, opts ...RedisRateCacheOption) *RedisRateCache {
	c := &RedisRateCache{
		rdb: rdb,
		key: "rates:usd",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type storedRate struct {
	Value     float64   `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (c *RedisRateCache) Get(ctx context.Context) (domain.ExchangeRate, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ExchangeRate{}, false, nil
	}
	if err != nil {
		return domain.ExchangeRate{}, false, fmt.Errorf("rate cache get: %w", err)
	}

	var sr storedRate
	if err := json.Unmarshal([]byte(raw), &sr); err != nil {
		return domain.ExchangeRate{}, false, fmt.Errorf("rate cache get: decode stored rate: %w", err)
	}

	return domain.ExchangeRate{Value: sr.Value, FetchedAt: sr.FetchedAt}, true, nil
}

func (c *RedisRateCache) Put(ctx context.Context, value float64, fetchedAt time.Time) error {
	raw, err := json.Marshal(storedRate{Value: value, FetchedAt: fetchedAt})
	if err != nil {
		return fmt.Errorf("rate cache put: encode rate: %w", err)
	}

	if err := c.rdb.Set(ctx, c.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("rate cache put: %w", err)
	}

	return nil
}
