// Package clock abstracts the wall clock used to stamp rendered lines so
// tests can inject deterministic time.
//
// Production code injects Real(); tests inject Fake() and move time with
// Advance or Set.
package clock

import (
	"sync"
	"time"
)

// Clock reads the current time.
type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by the system wall clock. The monotonic
// reading is stripped, so deltas between readings follow wall-clock steps
// and can be negative if the system clock is set backwards.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().Round(0) }

// Fake returns a FakeClock initialized to the given time. Time stands still
// until Advance or Set is called.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for testing.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the fake time forward by d. A negative d moves it back,
// which mimics a wall-clock adjustment.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set jumps the fake time to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
