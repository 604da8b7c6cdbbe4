// Package ratelimit throttles calls to the external trip store per trip so a
// burst of edits on one itinerary cannot starve the others.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Config is the token bucket applied to every key.
type Config struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultConfig matches the STORE_RPS / STORE_BURST defaults.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		BurstSize:         10,
	}
}

// KeyedLimiter lazily creates one rate.Limiter per key.
type KeyedLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	defaults Config
}

// New constructs a KeyedLimiter. Non-positive values fall back to DefaultConfig.
func New(cfg Config) *KeyedLimiter {
	def := DefaultConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = def.BurstSize
	}
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: cfg,
	}
}

// Limiter returns the limiter for key, creating it on first use.
func (k *KeyedLimiter) Limiter(key string) *rate.Limiter {
	k.mu.RLock()
	l, ok := k.limiters[key]
	k.mu.RUnlock()
	if ok {
		return l
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok = k.limiters[key]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(k.defaults.RequestsPerSecond), k.defaults.BurstSize)
	k.limiters[key] = l
	return l
}

// SetLimit overrides the bucket for one key.
func (k *KeyedLimiter) SetLimit(key string, rps float64, burst int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.limiters[key] = rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until key may proceed or ctx is done.
func (k *KeyedLimiter) Wait(ctx context.Context, key string) error {
	return k.Limiter(key).Wait(ctx)
}
