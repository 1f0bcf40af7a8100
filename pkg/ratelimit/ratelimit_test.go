package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestLimiter(limit int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(limit, window)
	l.now = clock.Now
	return l, clock
}

func TestAllowExhaustsBucket(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	defer l.Stop()

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "keys are independent")
}

func TestAllowRefills(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)
	defer l.Stop()

	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	clock.t = clock.t.Add(30 * time.Second)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestResetAndSweep(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)
	defer l.Stop()

	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
	l.Reset("k")
	assert.True(t, l.Allow("k"))

	clock.t = clock.t.Add(5 * time.Minute)
	l.sweep()
	l.mu.Lock()
	assert.Empty(t, l.entries)
	l.mu.Unlock()
}

func TestStopIsIdempotent(t *testing.T) {
	l := New(1, time.Second)
	l.Stop()
	assert.NotPanics(t, l.Stop)
}
