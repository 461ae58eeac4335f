package domain

import "time"

// The last known USD exchange rate and the moment it was fetched.
// The value is overwritten wholesale on each successful fetch, never merged.
type ExchangeRate struct {
	Value     float64
	FetchedAt time.Time
}

// Fresh reports whether the rate is still usable without refetching.
func (r ExchangeRate) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.FetchedAt) < ttl
}
