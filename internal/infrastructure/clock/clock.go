// Package clock provides the monotonic execution timer.
package clock

import (
	"time"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// Timer implements ports.ExecutionTimer on the runtime's monotonic clock.
type Timer struct {
	now func() time.Time
}

// New returns a Timer reading the wall clock with its monotonic reading.
func New() *Timer {
	return &Timer{now: time.Now}
}

// Start begins measuring an execution.
func (t *Timer) Start() ports.Stopwatch {
	now := t.now
	if now == nil {
		now = time.Now
	}
	return &stopwatch{start: now(), now: now}
}

type stopwatch struct {
	start time.Time
	now   func() time.Time
}

func (s *stopwatch) Elapsed() time.Duration {
	return s.now().Sub(s.start)
}

var _ ports.ExecutionTimer = (*Timer)(nil)
