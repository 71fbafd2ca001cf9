package util

import "time"

// Timer measures how long a verification or a single source call took.
type Timer struct {
	start time.Time
	now   func() time.Time
}

// StartTimer starts a timer at the current wall-clock time.
func StartTimer() Timer {
	return Timer{start: time.Now(), now: time.Now}
}

// Elapsed returns the duration since start; a zero Timer reports zero.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() {
		return 0
	}
	now := t.now
	if now == nil {
		now = time.Now
	}
	return now().Sub(t.start)
}

// ElapsedMs is Elapsed in whole milliseconds, the unit logged and stored.
func (t Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}
