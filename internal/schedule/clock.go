package schedule

import (
	"context"
	"time"
)

// Timer is a pending call scheduled on a Clock.
type Timer interface {
	// Stop prevents the call from running. It reports whether the call was
	// still pending.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Sleep pauses for d on clock. It returns ctx.Err() if ctx is done first.
func Sleep(ctx context.Context, clock Clock, d time.Duration) error {
	fired := make(chan struct{})
	timer := clock.AfterFunc(d, func() { close(fired) })

	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
