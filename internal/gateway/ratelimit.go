package gateway

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter implements per-client-key rate limiting with automatic
// cleanup of stale entries. Grounded on the pack's per-IP x/time/rate
// middleware idiom; here it guards /chat and /chat-open at the HTTP
// boundary, ahead of (and in addition to) the orchestrator's own
// per-session 50-messages/15-minutes throttle (spec §4.12).
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rateLimiterEntry
	rate     rate.Limit
	burst    int
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter builds a limiter allowing burst immediate requests, then
// one every 1/rpm minute. rpm <= 0 disables limiting (Allow always true).
func NewRateLimiter(rpm int, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rateLimiterEntry),
		burst:    burst,
	}
	if rpm > 0 {
		rl.rate = rate.Every(time.Minute / time.Duration(rpm))
		go rl.cleanupLoop(time.Hour)
	}
	return rl
}

// Enabled reports whether a positive RPM was configured.
func (rl *RateLimiter) Enabled() bool { return rl.rate > 0 }

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}

	rl.mu.Lock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	threshold := time.Now().Add(-time.Hour)
	for key, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, key)
		}
	}
}
