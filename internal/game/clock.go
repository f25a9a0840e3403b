package game

import "time"

// ClockConfig configures both players' clocks.
type ClockConfig struct {
	Duration  time.Duration
	Increment time.Duration
}

// Clock is a chess clock driven by external Tick calls.
type Clock struct {
	Duration  time.Duration
	Increment time.Duration
	Elapsed   time.Duration
	Running   bool
}

// NewClock returns a paused clock.
func NewClock(cfg ClockConfig) *Clock {
	return &Clock{Duration: cfg.Duration, Increment: cfg.Increment}
}

// Tick adds dt to the elapsed time. Ticks on a paused clock are ignored.
func (c *Clock) Tick(dt time.Duration) {
	if !c.Running || dt <= 0 {
		return
	}
	c.Elapsed += dt
}

// Pause stops the clock and credits the increment.
func (c *Clock) Pause() {
	if !c.Running {
		return
	}
	c.Running = false
	c.Elapsed -= c.Increment
}

// Unpause starts the clock.
func (c *Clock) Unpause() {
	c.Running = true
}

// Remaining returns the time left, never negative.
func (c *Clock) Remaining() time.Duration {
	if left := c.Duration - c.Elapsed; left > 0 {
		return left
	}
	return 0
}

// Flagged reports whether the clock ran out.
func (c *Clock) Flagged() bool {
	return c.Remaining() == 0
}

// Clone copies the clock.
func (c *Clock) Clone() *Clock {
	out := *c
	return &out
}
