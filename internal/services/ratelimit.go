package services

import (
	"sync"
	"time"
)

// sweepLimit is the map size above which Allow sweeps entries whose
// cooldown has already elapsed. Keeps the client map bounded over the
// process lifetime.
const sweepLimit = 1024

// RateLimiter tracks the last accepted submission per client identifier
// and rejects attempts that arrive within the cooldown window. It is a
// coarse throttle, not a token bucket: no burst allowance, no decay
// beyond the last attempt time.
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// Allow reports whether a submission from clientID may proceed at now.
// When the client's previous accepted attempt falls inside the cooldown
// window it returns the remaining wait and false; otherwise it records
// now as the latest attempt and returns true.
func (rl *RateLimiter) Allow(clientID string, now time.Time) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if prev, exists := rl.last[clientID]; exists {
		if elapsed := now.Sub(prev); elapsed < rl.window {
			return rl.window - elapsed, false
		}
	}

	if len(rl.last) >= sweepLimit {
		rl.sweep(now)
	}

	rl.last[clientID] = now
	return 0, true
}

// sweep drops entries whose cooldown already elapsed. Caller holds rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for id, prev := range rl.last {
		if now.Sub(prev) >= rl.window {
			delete(rl.last, id)
		}
	}
}

// Window returns the configured cooldown window.
func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// Tracked returns the number of clients currently held in the map.
func (rl *RateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.last)
}
