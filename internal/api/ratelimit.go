package api

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"parcel-delivery-service/internal/api/handlers"
)

// limiterStore keeps one token-bucket limiter per session key, evicting
// buckets idle longer than idleTTL during periodic sweeps.
type limiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry

	rps   rate.Limit
	burst int

	idleTTL     time.Duration
	sweepEvery  time.Duration
	lastSweepAt time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{
		entries:    make(map[string]*limiterEntry),
		rps:        rate.Limit(rps),
		burst:      burst,
		idleTTL:    15 * time.Minute,
		sweepEvery: 2 * time.Minute,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweepAt) >= s.sweepEvery {
		s.lastSweepAt = now
		for k, ent := range s.entries {
			if now.Sub(ent.lastSeen) > s.idleTTL {
				delete(s.entries, k)
			}
		}
	}

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	ent := &limiterEntry{
		lim:      rate.NewLimiter(s.rps, s.burst),
		lastSeen: now,
	}
	s.entries[key] = ent
	return ent.lim
}

// rateLimitMiddleware limits requests per session token. Callers without a
// session (middleware ordering bug) share one bucket rather than bypassing
// the limit.
func rateLimitMiddleware(store *limiterStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := handlers.SessionID(r)

		if !store.get(key).Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
