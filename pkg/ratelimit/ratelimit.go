// Package ratelimit implements an in-memory token-bucket limiter keyed by
// client identity.
package ratelimit

import (
	"sync"
	"time"
)

// entry tracks the token-bucket state for a single key.
type entry struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter grants each key `limit` requests per window, refilled
// continuously.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// New creates a limiter and starts its stale-entry sweeper. Call Stop to
// release it.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.cleanup(5 * time.Minute)
	return l
}

// Allow consumes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, exists := l.entries[key]
	if !exists {
		l.entries[key] = &entry{
			tokens:    float64(l.limit - 1),
			lastCheck: now,
		}
		return l.limit > 0
	}

	elapsed := now.Sub(e.lastCheck)
	e.lastCheck = now

	rate := float64(l.limit) / l.window.Seconds()
	e.tokens += elapsed.Seconds() * rate
	if e.tokens > float64(l.limit) {
		e.tokens = float64(l.limit)
	}

	if e.tokens < 1 {
		return false
	}

	e.tokens--
	return true
}

// Reset clears the state for a specific key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Stop terminates the sweeper goroutine.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-2 * l.window)
	for key, e := range l.entries {
		if e.lastCheck.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}
