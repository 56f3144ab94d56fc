package moderation

import (
	"math"
	"time"
)

// Escalator decides how long a mute lasts.
type Escalator struct {
	// Base is the duration of a first mute, or of a mute that comes at least
	// Threshold after the previous one ended.
	Base time.Duration
	// Threshold is the window after a mute ends in which a new mute doubles
	// the previous duration.
	Threshold time.Duration
}

// Next returns the duration of a mute starting at now, given the previous
// mute record if there is one.
func (e Escalator) Next(prev MuteRecord, hasPrev bool, now time.Time) time.Duration {
	if !hasPrev || now.Sub(prev.LastMute) >= e.Threshold {
		return e.Base
	}
	if prev.Duration > math.MaxInt64/2 {
		return prev.Duration
	}
	return prev.Duration * 2
}
