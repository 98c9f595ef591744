// Package ratelimit limits requests per client key over a time window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or rejects one request for key
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

func decide(count, limit int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// SlidingWindow keeps request timestamps per key in process memory.
type SlidingWindow struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	requests  map[string][]time.Time
	lastPrune time.Time
	now       func() time.Time
}

// NewSlidingWindow allows limit requests per key in any window-long span.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindow{
		limit:    limit,
		window:   window,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow records the request when it is admitted. Rejected requests do not
// extend the window. Keys idle for a whole window are dropped at most once
// per window.
func (l *SlidingWindow) Allow(_ context.Context, key string) Decision {
	now := l.now()
	windowStart := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastPrune) >= l.window {
		l.prune(windowStart)
		l.lastPrune = now
	}

	var valid []time.Time
	for _, ts := range l.requests[key] {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}

	resetAt := now.Add(l.window)
	if len(valid) > 0 {
		resetAt = valid[0].Add(l.window)
	}
	if len(valid) >= l.limit {
		l.requests[key] = valid
		return decide(len(valid)+1, l.limit, resetAt)
	}

	valid = append(valid, now)
	l.requests[key] = valid
	return decide(len(valid), l.limit, resetAt)
}

// Len reports how many keys are tracked
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// prune drops keys with no requests after windowStart; callers hold the lock.
func (l *SlidingWindow) prune(windowStart time.Time) {
	for key, ts := range l.requests {
		if len(ts) == 0 || !ts[len(ts)-1].After(windowStart) {
			delete(l.requests, key)
		}
	}
}
