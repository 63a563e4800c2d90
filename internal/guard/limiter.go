package guard

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter implements per-provider token bucket rate limiting. Each bucket
// holds up to burst tokens and refills continuously at perMinute/60
// tokens per second. Buckets are independent across providers.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter.
func NewLimiter(requestsPerMinute float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerMinute / 60.0),
		defaultBurst: burst,
	}
}

// Allow reports whether a token is immediately available for the provider.
// This is the default acquire policy: no token means the call is denied.
func (l *Limiter) Allow(provider string) bool {
	return l.getLimiter(provider).Allow()
}

// Wait blocks until a token is available or the context is done. Only for
// non-latency-critical paths.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	return l.getLimiter(provider).Wait(ctx)
}

// getLimiter returns the bucket for a provider, creating it on first use.
func (l *Limiter) getLimiter(provider string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[provider]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[provider]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[provider] = limiter

	return limiter
}

// SetProviderRate sets a custom rate for a specific provider.
func (l *Limiter) SetProviderRate(provider string, requestsPerMinute float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[provider] = rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst)
}
