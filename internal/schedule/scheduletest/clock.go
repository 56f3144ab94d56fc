// Package scheduletest provides a manually driven clock for testing code
// built on package schedule.
package scheduletest

import (
	"sort"
	"sync"
	"time"

	"github.com/glizzus/hush/internal/schedule"
)

// FakeClock is a Clock that only moves when Advance is called.
// Due callbacks run synchronously inside Advance, in deadline order.
type FakeClock struct {
	mu     sync.Mutex
	cond   *sync.Cond
	now    time.Time
	seq    uint64
	timers map[uint64]*fakeTimer
}

type fakeTimer struct {
	clock *FakeClock
	id    uint64
	at    time.Time
	f     func()
}

func NewFakeClock(now time.Time) *FakeClock {
	c := &FakeClock{
		now:    now,
		timers: make(map[uint64]*fakeTimer),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) schedule.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{clock: c, id: c.seq, at: c.now.Add(d), f: f}
	c.timers[t.id] = t
	c.cond.Broadcast()
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	t.clock.cond.Broadcast()
	return true
}

// Advance moves the clock forward by d, running every callback that becomes
// due along the way.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.dueLocked(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		delete(c.timers, due.id)
		c.now = due.at
		c.cond.Broadcast()
		c.mu.Unlock()

		due.f()
	}
}

func (c *FakeClock) dueLocked(target time.Time) *fakeTimer {
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.at.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].id < due[j].id
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// BlockUntil waits until at least n timers are pending.
func (c *FakeClock) BlockUntil(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.timers) < n {
		c.cond.Wait()
	}
}

var _ schedule.Clock = (*FakeClock)(nil)
