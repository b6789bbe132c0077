// Package monotonic reconstructs a nondecreasing 64-bit tick count from the
// 32-bit BIOS timer counter, which resets to zero at midnight.
//
// Wraparound detection compares each reading only with the previous one, so a
// Clock notices at most one midnight between two consecutive calls to Now. If
// more than a full day passes between calls the accumulated offset silently
// under-counts.
package monotonic

import (
	"sync"
	"time"

	"github.com/tnicklin/dosrt/clock"
)

// Clock owns the wraparound state for one tick source. The zero value is not
// usable; create clocks with New.
type Clock struct {
	src    clock.TickSource
	onWrap func(prev, cur uint32)

	mu      sync.Mutex
	lastRaw uint32
	offset  uint64
}

// Option configures a Clock.
type Option func(*Clock)

// WithWrapHook registers fn to be called every time Now detects a midnight
// wrap. fn runs with the clock locked and must not call back into it.
func WithWrapHook(fn func(prev, cur uint32)) Option {
	return func(c *Clock) { c.onWrap = fn }
}

// New returns a Clock reading src. The first call to Now establishes the
// baseline.
func New(src clock.TickSource, opts ...Option) *Clock {
	c := &Clock{src: src}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Now returns the Instant corresponding to the current tick count.
func (c *Clock) Now() Instant {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw := c.src.Ticks()
	if raw < c.lastRaw {
		c.offset += clock.DayTicks
		if c.onWrap != nil {
			c.onWrap(c.lastRaw, raw)
		}
	}
	c.lastRaw = raw

	return Instant{ticks: c.offset + uint64(raw)}
}

// Elapsed returns the time passed since i, or zero if i lies in the future.
func (c *Clock) Elapsed(i Instant) time.Duration {
	return c.Now().DurationSince(i)
}
