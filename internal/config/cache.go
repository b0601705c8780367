package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching will be disabled.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD).  TTL defines the
// lifetime of cache entries.  KeyStrategy determines which parts of the request
// contribute to the cache key.  Prefix and MaxBodyBytes allow control over
// namespacing and the maximum size of responses to cache.
type CacheConfig struct {
    Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
    Methods      []string      `env:"CACHE_METHODS" envSeparator:"," envDefault:"GET"`
    TTL          time.Duration `env:"CACHE_TTL" envDefault:"30s"`
    KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
    Prefix       string        `env:"CACHE_PREFIX" envDefault:"cache"`
    MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Cacheable reports whether responses to method are cached.
func (c CacheConfig) Cacheable(method string) bool {
    for _, m := range c.Methods {
        if strings.EqualFold(strings.TrimSpace(m), method) {
            return true
        }
    }
    return false
}
