package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerElapsed(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	timer := Timer{start: start, now: func() time.Time { return now }}

	assert.Equal(t, time.Duration(0), timer.Elapsed())

	now = start.Add(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, timer.Elapsed())
	assert.Equal(t, int64(1500), timer.ElapsedMs())
}

func TestZeroTimer(t *testing.T) {
	var timer Timer
	assert.Equal(t, time.Duration(0), timer.Elapsed())
	assert.Equal(t, int64(0), timer.ElapsedMs())
}
