package pool

import "time"

// Clock supplies the externally controlled timestamp every accrual is keyed
// on. Implementations must be monotonically non-decreasing; equal consecutive
// readings are valid.
type Clock interface {
	Now() uint64
}

// SystemClock reads wall-clock seconds.
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock is a hand-advanced clock for tests and replay.
type ManualClock struct {
	t uint64
}

func NewManualClock(t uint64) *ManualClock {
	return &ManualClock{t: t}
}

func (c *ManualClock) Now() uint64 {
	return c.t
}

// Set moves the clock forward. Attempts to move it backward are ignored.
func (c *ManualClock) Set(t uint64) {
	if t > c.t {
		c.t = t
	}
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d uint64) {
	c.t += d
}
