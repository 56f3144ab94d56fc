package moderation_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/glizzus/hush/internal/events"
	"github.com/glizzus/hush/internal/generator"
	"github.com/glizzus/hush/internal/moderation"
	"github.com/glizzus/hush/internal/schedule/scheduletest"
)

type muteCall struct {
	UserID string
	Mute   bool
}

type fakeMuter struct {
	mu      sync.Mutex
	calls   []muteCall
	failFor map[string]bool
	holds   map[string]*hold
}

// hold parks the next unmute of a user until release is closed.
type hold struct {
	entered chan struct{}
	release chan struct{}
}

func newFakeMuter() *fakeMuter {
	return &fakeMuter{
		failFor: make(map[string]bool),
		holds:   make(map[string]*hold),
	}
}

func (m *fakeMuter) SetMute(ctx context.Context, guildID, userID string, mute bool) error {
	m.mu.Lock()
	m.calls = append(m.calls, muteCall{UserID: userID, Mute: mute})
	fail := m.failFor[userID]
	h := m.holds[userID]
	if !mute && h != nil {
		delete(m.holds, userID)
	}
	m.mu.Unlock()

	if !mute && h != nil {
		close(h.entered)
		<-h.release
	}
	if fail {
		return errors.New("HTTP 403 Forbidden, Missing Permissions")
	}
	return nil
}

// holdUnmute makes the next unmute of userID block. entered is closed once
// the call is in flight; closing release lets it return.
func (m *fakeMuter) holdUnmute(userID string) (entered <-chan struct{}, release chan<- struct{}) {
	h := &hold{entered: make(chan struct{}), release: make(chan struct{})}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holds[userID] = h
	return h.entered, h.release
}

func (m *fakeMuter) Calls() []muteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]muteCall(nil), m.calls...)
}

func (m *fakeMuter) fail(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFor[userID] = true
}

type fakePresence struct {
	mu      sync.Mutex
	inVoice map[string]bool
}

func newFakePresence(userIDs ...string) *fakePresence {
	p := &fakePresence{inVoice: make(map[string]bool)}
	for _, id := range userIDs {
		p.inVoice[id] = true
	}
	return p
}

func (p *fakePresence) InVoice(guildID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inVoice[userID]
}

func (p *fakePresence) leave(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inVoice, userID)
}

const testGuildID = "517907971481534467"

var (
	alice = moderation.Participant{GuildID: testGuildID, UserID: "100", Name: "alice"}
	bob   = moderation.Participant{GuildID: testGuildID, UserID: "200", Name: "bob"}
	carol = moderation.Participant{GuildID: testGuildID, UserID: "300", Name: "carol"}
)

var epoch = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

type harness struct {
	clock     *scheduletest.FakeClock
	muter     *fakeMuter
	presence  *fakePresence
	publisher *events.MemoryPublisher
	moderator *moderation.Moderator
}

func newHarness(allowance time.Duration, inVoice ...string) *harness {
	h := &harness{
		clock:     scheduletest.NewFakeClock(epoch),
		muter:     newFakeMuter(),
		presence:  newFakePresence(inVoice...),
		publisher: events.NewMemoryPublisher(),
	}
	h.moderator = moderation.New(moderation.NewState(), h.muter, h.presence, moderation.Options{
		Allowance:    allowance,
		PollInterval: time.Second,
		Escalator: moderation.Escalator{
			Base:      30 * time.Second,
			Threshold: 60 * time.Second,
		},
		Clock:     h.clock,
		Publisher: h.publisher,
		IDs:       &generator.SequenceGenerator{Prefix: "evt"},
	})
	return h
}

// tick advances the fake clock one poll interval once the monitor loop is
// waiting on it.
func (h *harness) tick() {
	h.clock.BlockUntil(1)
	h.clock.Advance(time.Second)
}
