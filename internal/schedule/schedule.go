package schedule

import (
	"sync"
	"time"
)

// Timers holds at most one pending call per key.
type Timers struct {
	clock Clock

	mu      sync.Mutex
	pending map[string]*pendingCall
}

type pendingCall struct {
	timer Timer
}

func NewTimers(clock Clock) *Timers {
	if clock == nil {
		clock = RealClock
	}
	return &Timers{
		clock:   clock,
		pending: make(map[string]*pendingCall),
	}
}

// Schedule runs f after d unless the key is cancelled first.
// A call already pending for key is replaced.
func (t *Timers) Schedule(key string, d time.Duration, f func()) {
	call := &pendingCall{}

	t.mu.Lock()
	if prev, ok := t.pending[key]; ok {
		prev.timer.Stop()
	}
	t.pending[key] = call
	call.timer = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		current, ok := t.pending[key]
		if !ok || current != call {
			t.mu.Unlock()
			return
		}
		delete(t.pending, key)
		t.mu.Unlock()

		f()
	})
	t.mu.Unlock()
}

// Cancel stops the call pending for key and reports whether there was one.
func (t *Timers) Cancel(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	call, ok := t.pending[key]
	if !ok {
		return false
	}
	delete(t.pending, key)
	call.timer.Stop()
	return true
}

// CancelAll stops every pending call and returns their keys.
func (t *Timers) CancelAll() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.pending))
	for key, call := range t.pending {
		call.timer.Stop()
		keys = append(keys, key)
	}
	clear(t.pending)
	return keys
}

func (t *Timers) Pending(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[key]
	return ok
}
