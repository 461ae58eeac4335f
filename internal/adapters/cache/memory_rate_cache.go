package cache

import (
	"context"
	"sync"
	"time"

	"parcel-delivery-service/internal/domain"
)

// MemoryRateCache holds the single current exchange rate in process memory.
// Reads and writes are safe under concurrent callers; the rate service is
// the only writer.
type MemoryRateCache struct {
	mu   sync.RWMutex
	rate domain.ExchangeRate
	set  bool
}

func NewMemoryRateCache() *MemoryRateCache {
	return &MemoryRateCache{}
}

func (c *MemoryRateCache) Get(ctx context.Context) (domain.ExchangeRate, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate, c.set, nil
}

// Put overwrites the stored rate wholesale; last writer wins.
func (c *MemoryRateCache) Put(ctx context.Context, value float64, fetchedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = domain.ExchangeRate{Value: value, FetchedAt: fetchedAt}
	c.set = true
	return nil
}
