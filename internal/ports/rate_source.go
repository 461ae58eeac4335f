package ports

import (
	"context"
	"time"

	"parcel-delivery-service/internal/domain"
)

// Contract for fetching the current USD exchange rate from an external
// source. Implementations do not retry; retry policy lives in the caller.
type RateSource interface {
	FetchUSDRate(ctx context.Context) (float64, error)
}

// Contract for the single-value exchange-rate cache: one current rate plus
// a freshness check derived from its fetch time. Not a general key-value
// store. Put is last-writer-wins.
type RateCache interface {
	// Get returns the stored rate and whether one exists at all.
	Get(ctx context.Context) (domain.ExchangeRate, bool, error)
	Put(ctx context.Context, value float64, fetchedAt time.Time) error
}
