// Package clock provides the millisecond time base of the controller.
package clock

import (
	"sync"
	"time"
)

// Millis is a free-running millisecond counter. It wraps around after
// about 49.7 days, the same way a microcontroller's millis() does, so
// elapsed time must always be computed with Since.
type Millis uint32

// Since returns the milliseconds elapsed from earlier to m.
// The unsigned subtraction stays correct across a single wraparound.
func (m Millis) Since(earlier Millis) uint32 {
	return uint32(m - earlier)
}

// Duration converts the counter value to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Clock provides the current time.
type Clock interface {
	Now() Millis
}

// ClockFunc is the func form of Clock.
type ClockFunc func() Millis

// Now implements Clock.
func (f ClockFunc) Now() Millis {
	return f()
}

// Monotonic counts milliseconds since it was created.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a Monotonic starting at zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now implements Clock.
func (c *Monotonic) Now() Millis {
	return Millis(uint64(time.Since(c.start) / time.Millisecond))
}

// Fake is a manually advanced Clock.
type Fake struct {
	now  Millis
	lock sync.Mutex
}

// NewFake creates a Fake at the given time.
func NewFake(now Millis) *Fake {
	return &Fake{now: now}
}

// Now implements Clock.
func (c *Fake) Now() Millis {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Advance moves the clock forward by ms and returns the new time.
func (c *Fake) Advance(ms uint32) Millis {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now += Millis(ms)
	return c.now
}

// Set jumps the clock to now.
func (c *Fake) Set(now Millis) {
	c.lock.Lock()
	c.now = now
	c.lock.Unlock()
}
