// Package testutil provides deterministic helpers for tests: a scripted
// wall clock and time-construction shorthands shared across packages.
package testutil

import (
	"sync"
	"time"
)

// ScriptedClock returns a fixed sequence of instants in order, then keeps
// advancing from the last one in one-second steps. Deterministic clocks
// keep session classification and sweep dates stable under test.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type ScriptedClock struct {
	mu       sync.Mutex
	instants []time.Time
	idx      int
	last     time.Time
}

// NewScriptedClock creates a clock that serves the given instants in
// order. At least one instant is required; a clock with nothing to say is
// a test bug, so this panics on an empty list.
func NewScriptedClock(instants ...time.Time) *ScriptedClock {
	if len(instants) == 0 {
		panic("testutil: scripted clock needs at least one instant")
	}
	return &ScriptedClock{instants: instants, last: instants[0]}
}

// Now returns the next scripted instant, or last+1s steps once the script
// is exhausted.
func (c *ScriptedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idx < len(c.instants) {
		c.last = c.instants[c.idx]
		c.idx++
		return c.last
	}
	c.last = c.last.Add(time.Second)
	return c.last
}

// Remaining reports how many scripted instants are unserved.
func (c *ScriptedClock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.instants) - c.idx
}

// At builds a local-zone instant on a fixed reference date (2025-03-10).
// Most tests care only about time-of-day; this keeps them terse.
func At(h, m, s int) time.Time {
	return time.Date(2025, 3, 10, h, m, s, 0, time.Local)
}
