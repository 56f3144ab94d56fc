package moderation_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMonitorMutesAfterAllowanceThenAutoUnmutes(t *testing.T) {
	h := newHarness(60*time.Second, alice.UserID)
	released := make(chan struct{})

	if !h.moderator.Watch(t.Context(), alice, func() { close(released) }) {
		t.Fatalf("expected Watch to start a loop")
	}

	for range 60 {
		h.tick()
	}
	h.clock.BlockUntil(1)
	if len(h.muter.Calls()) != 0 {
		t.Fatalf("muted at exactly the allowance: %v", h.muter.Calls())
	}

	h.clock.Advance(time.Second)
	<-released

	if diff := cmp.Diff([]muteCall{{alice.UserID, true}}, h.muter.Calls()); diff != "" {
		t.Fatalf("mute calls mismatch (-want +got):\n%s", diff)
	}
	if h.moderator.Watching(alice.UserID) {
		t.Errorf("expected the loop to end after muting")
	}

	h.clock.Advance(29 * time.Second)
	if len(h.muter.Calls()) != 1 {
		t.Fatalf("unmuted before the cooldown ended")
	}
	h.clock.Advance(time.Second)
	want := []muteCall{{alice.UserID, true}, {alice.UserID, false}}
	if diff := cmp.Diff(want, h.muter.Calls()); diff != "" {
		t.Errorf("mute calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMonitorExtendedParticipantGetsDoubleAllowance(t *testing.T) {
	h := newHarness(60*time.Second, bob.UserID)
	h.moderator.State().SetExtended(bob.UserID, true)
	released := make(chan struct{})

	h.moderator.Watch(t.Context(), bob, func() { close(released) })

	for range 120 {
		h.tick()
	}
	h.clock.BlockUntil(1)
	if len(h.muter.Calls()) != 0 {
		t.Fatalf("extended participant muted before twice the allowance: %v", h.muter.Calls())
	}

	h.clock.Advance(time.Second)
	<-released
	if diff := cmp.Diff([]muteCall{{bob.UserID, true}}, h.muter.Calls()); diff != "" {
		t.Errorf("mute calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMonitorEndsWhenParticipantLeaves(t *testing.T) {
	h := newHarness(60*time.Second, carol.UserID)
	released := make(chan struct{})

	h.moderator.Watch(t.Context(), carol, func() { close(released) })
	for range 10 {
		h.tick()
	}
	h.clock.BlockUntil(1)
	h.presence.leave(carol.UserID)
	h.clock.Advance(time.Second)
	<-released

	if len(h.muter.Calls()) != 0 {
		t.Errorf("expected no mute, got %v", h.muter.Calls())
	}
	if h.moderator.Watching(carol.UserID) {
		t.Errorf("expected the loop to be gone")
	}
	start, ok := h.moderator.State().TalkStart(carol.UserID)
	if !ok || !start.Equal(epoch) {
		t.Errorf("expected talk start %v, got %v, %v", epoch, start, ok)
	}
}

func TestWatchRunsOneLoopPerParticipant(t *testing.T) {
	h := newHarness(60*time.Second, alice.UserID)

	if !h.moderator.Watch(t.Context(), alice, nil) {
		t.Fatalf("expected first Watch to start a loop")
	}
	if h.moderator.Watch(t.Context(), alice, nil) {
		t.Errorf("expected second Watch to be refused")
	}
	h.moderator.StopAll()
	if h.moderator.Watching(alice.UserID) {
		t.Errorf("expected StopAll to end the loop")
	}
}

func TestUnmonitorStopsLoop(t *testing.T) {
	h := newHarness(60*time.Second, alice.UserID)
	released := make(chan struct{})

	h.moderator.Monitor(t.Context(), alice)
	h.moderator.Watch(t.Context(), alice, func() { close(released) })
	h.clock.BlockUntil(1)

	if _, ok := h.moderator.Unmonitor(t.Context(), alice.UserID); !ok {
		t.Fatalf("expected alice to have been monitored")
	}
	<-released

	if h.moderator.Watching(alice.UserID) {
		t.Errorf("expected the loop to be stopped")
	}
	if h.clock.Pending() != 0 {
		t.Errorf("expected the poll timer to be stopped, %d pending", h.clock.Pending())
	}
	h.clock.Advance(time.Hour)
	if len(h.muter.Calls()) != 0 {
		t.Errorf("expected no mute after unmonitor, got %v", h.muter.Calls())
	}
}

func TestMonitorDoesNotRemuteMutedParticipant(t *testing.T) {
	h := newHarness(5*time.Second, bob.UserID)
	if _, err := h.moderator.Punish(t.Context(), bob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	released := make(chan struct{})

	h.moderator.Watch(t.Context(), bob, func() { close(released) })
	// One timer is the pending unmute, the other the poll.
	for range 6 {
		h.clock.BlockUntil(2)
		h.clock.Advance(time.Second)
	}
	<-released

	if diff := cmp.Diff([]muteCall{{bob.UserID, true}}, h.muter.Calls()); diff != "" {
		t.Errorf("mute calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRemuteAfterUnmuteEscalates(t *testing.T) {
	h := newHarness(10*time.Second, alice.UserID)

	released := make(chan struct{})
	h.moderator.Watch(t.Context(), alice, func() { close(released) })
	for range 11 {
		h.tick()
	}
	<-released
	h.clock.Advance(30 * time.Second)
	if h.moderator.State().IsMuted(alice.UserID) {
		t.Fatalf("expected the first mute to be over")
	}

	released = make(chan struct{})
	h.moderator.Watch(t.Context(), alice, func() { close(released) })
	for range 11 {
		h.tick()
	}
	<-released

	muted := h.moderator.State().Muted()
	if len(muted) != 1 || muted[0].Duration != 60*time.Second {
		t.Errorf("expected a doubled 60s mute, got %+v", muted)
	}
}
