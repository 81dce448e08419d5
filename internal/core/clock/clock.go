// Package clock provides the time source for the keyspace engine.
//
// All expiration logic consults a Clock instead of the OS clock so that
// TTL behavior is deterministic under test: a frozen clock returns a
// fixed millisecond timestamp until it is advanced or unfrozen.
package clock

import (
	"sync"
	"time"
)

// Clock is a switchable millisecond time source.
//
// The zero value is a wall clock; use New for clarity.
type Clock struct {
	mu       sync.Mutex
	frozen   bool
	frozenMS int64
}

// New creates a wall-clock Clock.
func New() *Clock {
	return &Clock{}
}

// NowMS returns the current time in epoch milliseconds.
// When frozen, it returns the frozen value.
func (c *Clock) NowMS() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return c.frozenMS
	}
	return time.Now().UnixMilli()
}

// Freeze pins the clock at the current wall time.
func (c *Clock) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
	c.frozenMS = time.Now().UnixMilli()
}

// FreezeAt pins the clock at the given epoch millisecond value.
func (c *Clock) FreezeAt(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
	c.frozenMS = ms
}

// Advance moves a frozen clock forward. It has no effect on a running clock.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		c.frozenMS += d.Milliseconds()
	}
}

// Unfreeze returns the clock to wall time.
func (c *Clock) Unfreeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = false
}

// Frozen reports whether the clock is pinned.
func (c *Clock) Frozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozen
}
