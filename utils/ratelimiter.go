package utils

import (
	"sync"
	"time"
)

// RateLimiter spaces out page loads against one site. The external sites
// are third parties; hammering them only gets the scraper blocked sooner.
type RateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	delay    time.Duration
}

// NewRateLimiter creates a RateLimiter enforcing the given minimum delay
// between calls.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	return &RateLimiter{delay: delay}
}

// Wait blocks until enough time has passed since the last call.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elapsed := time.Since(r.lastCall); elapsed < r.delay {
		time.Sleep(r.delay - elapsed)
	}
	r.lastCall = time.Now()
}
