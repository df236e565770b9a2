package clock

import "time"

// FakeClock is a manually advanced clock for tests. The analysis engine
// and session expiry tests depend on it for stable timestamps.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward. Not safe for concurrent use.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
