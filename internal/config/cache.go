package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the catalog response cache.  When
// Enabled is false or no Redis client is configured, caching is disabled.
// Only GET responses with status 200 are stored; entries expire after TTL
// and are purged whenever the catalog changes.  Keys are namespaced by
// Prefix and built from the request path and query string.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       strings.TrimSuffix(envStr("CACHE_PREFIX", "cache:catalog"), ":"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}
