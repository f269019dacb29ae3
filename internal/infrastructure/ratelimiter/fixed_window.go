package ratelimiter

import (
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindowRateLimiter counts requests per source within fixed time
// windows. Stale sources are evicted by a background sweep.
type FixedWindowRateLimiter struct {
	limit     int
	timeFrame time.Duration

	mu      sync.Mutex
	windows map[string]*window

	sweep *time.Ticker
	done  chan struct{}
}

func NewFixedWindowRateLimiter(limit int, timeFrame time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		limit:     limit,
		timeFrame: timeFrame,
		windows:   make(map[string]*window),
		sweep:     time.NewTicker(timeFrame),
		done:      make(chan struct{}),
	}
	go rl.startSweep()
	return rl
}

func (rl *FixedWindowRateLimiter) Allow(source string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[source]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[source] = &window{count: 1, resetAt: now.Add(rl.timeFrame)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, time.Until(w.resetAt)
	}

	w.count++
	return true, 0
}

func (rl *FixedWindowRateLimiter) startSweep() {
	for {
		select {
		case <-rl.sweep.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindowRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for source, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, source)
		}
	}
}

func (rl *FixedWindowRateLimiter) Close() {
	close(rl.done)
	rl.sweep.Stop()
}
