// Package ratelimit implements the sliding-window limiter guarding login.
//
// An attempt is allowed when fewer than limit allowed attempts for the same
// key fall inside the window ending now. Denied attempts are not recorded, so
// a client that keeps hammering is released once its earlier attempts age
// out of the window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether one more attempt for key is allowed and records it
// when it is.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter keeps a log of allowed attempts per key in process memory.
type MemoryLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := prune(l.hits[key], now.Add(-l.window))

	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false, nil
	}

	l.hits[key] = append(recent, now)
	return true, nil
}

// Sweep drops keys whose attempts have all left the window.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for k, v := range l.hits {
		if recent := prune(v, cutoff); len(recent) == 0 {
			delete(l.hits, k)
		} else {
			l.hits[k] = recent
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *MemoryLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (l *MemoryLimiter) keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// prune returns the suffix of ts newer than cutoff. ts is in ascending order.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}
