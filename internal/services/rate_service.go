package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"parcel-delivery-service/internal/platform/obs"
	"parcel-delivery-service/internal/ports"
)

// RateService composes the rate cache and the external rate source.
//
// GetRate returns the cached rate while fresh, fetches otherwise, and falls
// back to the last known stale rate when the fetch fails. Concurrent cache
// misses share one in-flight external call via singleflight, so the source
// never sees a thundering herd.
//
// The service is the sole writer of the cache.
type RateService struct {
	cache  ports.RateCache
	source ports.RateSource
	ttl    time.Duration

	group singleflight.Group
	now   func() time.Time
}

func NewRateService(cache ports.RateCache, source ports.RateSource, ttl time.Duration) *RateService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RateService{
		cache:  cache,
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetRate returns a usable USD exchange rate.
//
// Order of preference: fresh cached value, freshly fetched value, stale
// cached value (degraded mode). Only when no value has ever been cached and
// the fetch fails does it return ErrRateUnavailable.
func (s *RateService) GetRate(ctx context.Context) (float64, error) {
	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("get rate: read cache: %w", err)
	}
	if ok && cached.Fresh(s.now(), s.ttl) {
		return cached.Value, nil
	}

	value, err, _ := s.group.Do("usd", func() (any, error) {
		return s.fetchAndStore(ctx)
	})
	if err == nil {
		return value.(float64), nil
	}

	obs.Event(obs.EventRateFetchFailed, "err=%v", err)

	// Re-read rather than reuse the copy from above: another process may
	// have refreshed the shared cache in the meantime.
	stale, ok, cacheErr := s.cache.Get(ctx)
	if cacheErr == nil && ok {
		obs.Event(obs.EventRateDegraded, "value=%v fetched_at=%s age=%s",
			stale.Value, stale.FetchedAt.Format(time.RFC3339), s.now().Sub(stale.FetchedAt))
		return stale.Value, nil
	}

	return 0, fmt.Errorf("get rate: %w", ports.ErrRateUnavailable)
}

// Refresh forces one fetch-and-store regardless of cache freshness. The
// scheduler's retry-once policy wraps this call; the method itself never
// retries.
func (s *RateService) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("usd", func() (any, error) {
		return s.fetchAndStore(ctx)
	})
	if err != nil {
		return fmt.Errorf("refresh rate: %w", err)
	}

	return nil
}

func (s *RateService) fetchAndStore(ctx context.Context) (float64, error) {
	rate, err := s.source.FetchUSDRate(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Put(ctx, rate, s.now()); err != nil {
		return 0, fmt.Errorf("store fetched rate: %w", err)
	}

	return rate, nil
}
