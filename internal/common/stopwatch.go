package common

import (
	"time"
)

// Anything that can tell the current time. Tests provide their own
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// This stopwatch keeps track of time. You can set a timeout for it,
// make it start counting time, and ask it if the timeout has been reached
type Stopwatch struct {
	Timeout   time.Duration
	startTime time.Time
	running   bool
	clock     Clock
}

func NewStopwatch(timeout time.Duration, clock Clock) Stopwatch {
	return Stopwatch{Timeout: timeout, clock: clock}
}

func (s *Stopwatch) Start() {
	s.running = true
	s.startTime = s.clock.Now()
}

// Return the time elapsed since this stopwatch
// stopped (reached its timeout).
// Note that if the number is negative, the timeout still
// has not been reached
func (s *Stopwatch) TimeStopped() time.Duration {
	return s.clock.Now().Sub(s.startTime.Add(s.Timeout))
}

// Report if the timeout has been reached. A stopwatch that
// was never started counts as stopped
func (s *Stopwatch) Stopped() (bool, time.Duration) {
	if !s.running {
		return true, 0
	}
	elapsed := s.TimeStopped()
	return elapsed >= 0, elapsed
}
