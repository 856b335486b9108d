package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStopwatchMeasuresElapsedTime(t *testing.T) {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timer := &Timer{now: func() time.Time { return current }}

	sw := timer.Start()
	current = current.Add(1500 * time.Millisecond)
	require.Equal(t, 1500*time.Millisecond, sw.Elapsed())
}

func TestRealTimerIsMonotonic(t *testing.T) {
	sw := New().Start()
	require.GreaterOrEqual(t, sw.Elapsed(), time.Duration(0))
}
