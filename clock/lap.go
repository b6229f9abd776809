package clock

import "time"

// Delta returns cur - prev with nanosecond resolution. The result is signed
// and not clamped: a wall clock stepped backwards yields a negative delta.
func Delta(prev, cur time.Time) time.Duration {
	return cur.Round(0).Sub(prev.Round(0))
}

// Lap tracks the instant of the previous event. The zero value is ready to
// use and has no baseline.
type Lap struct {
	last time.Time
	set  bool
}

// Mark records now as the latest event and returns the time elapsed since
// the previous one. The first call only sets the baseline and returns zero.
func (l *Lap) Mark(now time.Time) time.Duration {
	if !l.set {
		l.last = now
		l.set = true
		return 0
	}
	d := Delta(l.last, now)
	l.last = now
	return d
}

// Last returns the previously marked instant and whether one exists.
func (l *Lap) Last() (time.Time, bool) {
	return l.last, l.set
}
