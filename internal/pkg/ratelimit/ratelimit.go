package ratelimit

import (
	"sync"
	"time"
)

const (
	// Instagram allows 200 calls per hour per account; stay under it.
	DefaultMaxRequests   = 180
	DefaultWindowSeconds = 3600
)

// Limiter is a rolling-window admission controller shared by every outbound
// Graph API call. All mutation happens under one mutex so concurrent callers
// cannot admit past the quota between check and record.
type Limiter struct {
	maxRequests int
	window      time.Duration

	mu       sync.Mutex
	requests []time.Time
	now      func() time.Time
}

// New creates a limiter. Non-positive arguments fall back to the defaults.
func New(maxRequests, windowSeconds int) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if windowSeconds <= 0 {
		windowSeconds = DefaultWindowSeconds
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      time.Duration(windowSeconds) * time.Second,
		now:         time.Now,
	}
}

// prune drops request timestamps outside the rolling window.
// Callers must hold l.mu.
func (l *Limiter) prune() {
	cutoff := l.now().Add(-l.window)
	i := 0
	for i < len(l.requests) && !l.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.requests = append(l.requests[:0], l.requests[i:]...)
	}
}

// Allow reports whether a request may proceed now without exceeding quota.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	return len(l.requests) < l.maxRequests
}

// Record marks that a request was dispatched, whatever its outcome.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests = append(l.requests, l.now())
}

// Remaining returns how many requests are left in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	remaining := l.maxRequests - len(l.requests)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetIn returns how long until the oldest recorded request leaves the
// window. Zero when the window has capacity right now.
func (l *Limiter) ResetIn() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	if len(l.requests) < l.maxRequests {
		return 0
	}
	wait := l.requests[0].Add(l.window).Sub(l.now())
	if wait < 0 {
		return 0
	}
	return wait
}
