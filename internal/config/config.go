package config

import (
	"os"
	"strconv"
	"time"
)

// Runtime configuration resolved from the environment with stated defaults.
// Callers load a .env file (godotenv) before calling Load.
type Config struct {
	Port        string
	DatabaseURL string

	// Empty RedisAddr selects the in-process rate cache.
	RedisAddr string

	RateAPIURL          string
	RateTTL             time.Duration
	RateRefreshInterval time.Duration
	RateRetryDelay      time.Duration
	BackfillInterval    time.Duration
	FetchTimeout        time.Duration

	// Per-session request limiter.
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() Config {
	return Config{
		Port:        Get("PORT", "8080"),
		DatabaseURL: Get("DATABASE_URL", ""),
		RedisAddr:   Get("REDIS_ADDR", ""),

		RateAPIURL:          Get("RATE_API_URL", "https://www.cbr-xml-daily.ru/daily_json.js"),
		RateTTL:             GetDuration("RATE_TTL", 5*time.Minute),
		RateRefreshInterval: GetDuration("RATE_REFRESH_INTERVAL", 5*time.Minute),
		RateRetryDelay:      GetDuration("RATE_RETRY_DELAY", 5*time.Minute),
		BackfillInterval:    GetDuration("BACKFILL_INTERVAL", 10*time.Second),
		FetchTimeout:        GetDuration("FETCH_TIMEOUT", 5*time.Second),

		RateLimitRPS:   GetFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: GetInt("RATE_LIMIT_BURST", 20),
	}
}

func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetDuration reads a Go duration string (e.g. "10s", "5m"); malformed
// values fall back to the default.
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func GetInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func GetFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
