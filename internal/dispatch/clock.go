package dispatch

import (
	"sync"
	"time"
)

// Clock is the only source of "now" for the live loop.
type Clock interface {
	Now() time.Time
	// Until is the real duration to wait before the clock reads t.
	Until(t time.Time) time.Duration
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Until(t time.Time) time.Duration { return time.Until(t) }

// ScaledClock runs Factor times faster than the wall clock, starting at Origin.
// Factor 12 reproduces the classic demo pace of one prep minute per five seconds.
type ScaledClock struct {
	origin time.Time
	start  time.Time
	factor float64
}

func NewScaledClock(origin time.Time, factor float64) *ScaledClock {
	if factor <= 0 {
		factor = 1
	}
	return &ScaledClock{origin: origin, start: time.Now(), factor: factor}
}

func (c *ScaledClock) Now() time.Time {
	elapsed := time.Since(c.start)
	return c.origin.Add(time.Duration(float64(elapsed) * c.factor))
}

func (c *ScaledClock) Until(t time.Time) time.Duration {
	return time.Duration(float64(t.Sub(c.Now())) / c.factor)
}

// ManualClock only moves when told to. Until reports zero once t is reached and a
// long wait otherwise, so a loop driven by it only wakes up on Set.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(now time.Time) *ManualClock { return &ManualClock{now: now} }

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *ManualClock) Add(d time.Duration) { c.Set(c.Now().Add(d)) }

func (c *ManualClock) Until(t time.Time) time.Duration {
	if !c.Now().Before(t) {
		return 0
	}
	return time.Hour
}
