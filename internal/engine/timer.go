package engine

import "time"

// Timer fires at most once per interval. The first Tick after New or Reset
// always fires; later fires are backdated by their lateness so the average
// rate stays close to the interval.
type Timer struct {
	interval time.Duration
	last     time.Time
	first    bool
	now      func() time.Time
}

func NewTimer(interval time.Duration) *Timer {
	return &Timer{interval: interval, first: true, now: time.Now}
}

// Reset makes the next Tick fire.
func (t *Timer) Reset() {
	t.first = true
	t.last = t.now()
}

// Tick reports whether the interval has elapsed since the last fire.
func (t *Timer) Tick() bool {
	now := t.now()
	if t.first {
		t.first = false
		t.last = now
		return true
	}
	elapsed := now.Sub(t.last)
	if elapsed < t.interval {
		return false
	}
	t.last = now.Add(-(elapsed - t.interval))
	return true
}
