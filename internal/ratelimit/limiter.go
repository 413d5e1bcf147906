package ratelimit

import (
	"sync"
	"time"
)

// Limiter is an in-memory sliding-window rate limiter. Each protected
// concern gets its own instance with an independent max/window pair;
// state is never shared between instances.
type Limiter struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	maxRequests int
	window      time.Duration
}

func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		requests:    make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
	}
}

// Allow reports whether a request for key is admitted. Admitted
// requests are recorded; rejected ones are not.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	times := l.prune(key, now)
	if len(times) >= l.maxRequests {
		l.requests[key] = times
		return false
	}

	l.requests[key] = append(times, now)
	return true
}

// Remaining returns how many requests key may still make in the
// current window.
func (l *Limiter) Remaining(key string) int {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	times := l.prune(key, now)
	l.requests[key] = times

	remaining := l.maxRequests - len(times)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.requests, key)
}

// Cleanup drops keys with no timestamps inside the current window.
// Call it periodically to bound memory for churning key sets.
func (l *Limiter) Cleanup() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key := range l.requests {
		times := l.prune(key, now)
		if len(times) == 0 {
			delete(l.requests, key)
		} else {
			l.requests[key] = times
		}
	}
}

func (l *Limiter) Window() time.Duration {
	return l.window
}

// prune returns key's timestamps still inside the window ending at now.
// Caller must hold the lock.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	windowStart := now.Add(-l.window)

	times := l.requests[key]
	kept := times[:0]
	for _, t := range times {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	return kept
}
