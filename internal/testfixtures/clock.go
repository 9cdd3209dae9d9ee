package testfixtures

import (
	"sync"
	"time"
)

// Clock pins the planner's notion of now to a controllable instant, so week
// resolution and session expiry can be stepped through deterministically.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at start. A zero start pins the clock to
// ReferenceTime, the Monday anchor the fixtures are built around.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

// Now returns the instant the clock is pinned to.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc adapts the clock to the `func() time.Time` dependency the services
// take. A nil clock yields the real time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set pins the clock to an exact instant.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance steps the clock forward by d and returns the new instant. Tests
// use it to cross expiry and week boundaries without sleeping.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Current is a read-only alias for Now, signalling that the assertion does
// not progress time.
func (c *Clock) Current() time.Time {
	return c.Now()
}
