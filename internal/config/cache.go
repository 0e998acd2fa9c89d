package config

import "time"

// CacheConfig defines settings for the response cache middleware.  Only
// the statistics endpoints are cached: their payload is identical for
// every authorized caller, unlike the per-user letter lists.  When
// Enabled is false or no Redis client is configured, caching is a no-op.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* environment variables with defaults.  A
// short TTL keeps the dashboard counters close to live while absorbing
// the SPA's fixed-interval polling.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
