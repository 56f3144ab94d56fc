package moderation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/glizzus/hush/internal/schedule"
)

// Watch starts the talk-time loop for p unless one is already running, in
// which case it returns false. release, if not nil, is called once the loop
// ends.
func (m *Moderator) Watch(ctx context.Context, p Participant, release func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, running := m.loops[p.UserID]; running {
		return false
	}
	loopCtx, cancel := context.WithCancel(ctx)
	l := &loop{cancel: cancel, done: make(chan struct{})}
	m.loops[p.UserID] = l

	go m.monitor(loopCtx, p, l, release)
	return true
}

func (m *Moderator) Watching(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loops[userID]
	return ok
}

// StopWatching cancels the participant's loop and waits for it to end.
func (m *Moderator) StopWatching(userID string) bool {
	m.mu.Lock()
	l, ok := m.loops[userID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	l.cancel()
	<-l.done
	return true
}

// StopAll cancels every loop and waits for them to end.
func (m *Moderator) StopAll() {
	m.mu.Lock()
	loops := make([]*loop, 0, len(m.loops))
	for _, l := range m.loops {
		loops = append(loops, l)
	}
	m.mu.Unlock()

	for _, l := range loops {
		l.cancel()
		<-l.done
	}
}

func (m *Moderator) monitor(ctx context.Context, p Participant, l *loop, release func()) {
	defer func() {
		m.mu.Lock()
		if m.loops[p.UserID] == l {
			delete(m.loops, p.UserID)
		}
		m.mu.Unlock()
		l.cancel()
		if release != nil {
			release()
		}
		close(l.done)
	}()

	start := m.clock.Now()
	m.state.StartTalking(p.UserID, start)
	slog.Debug("Monitoring talk time", "userID", p.UserID, "name", p.Name, "allowance", m.AllowanceFor(p.UserID))

	for {
		if !m.presence.InVoice(p.GuildID, p.UserID) {
			slog.Debug("Participant left voice, monitoring cycle ended", "userID", p.UserID, "name", p.Name)
			return
		}

		if m.Exceeded(p.UserID, start, m.clock.Now()) {
			duration, err := m.Punish(ctx, p)
			switch {
			case errors.Is(err, ErrAlreadyMuted):
				slog.Debug("Participant exceeded talk time but is already muted", "userID", p.UserID, "name", p.Name)
			case err != nil:
				slog.Error("failed to mute participant", "userID", p.UserID, "name", p.Name, "error", err)
			default:
				slog.Info("Muted for exceeding talk time", "userID", p.UserID, "name", p.Name, "duration", duration)
			}
			return
		}

		if err := schedule.Sleep(ctx, m.clock, m.poll); err != nil {
			return
		}
	}
}
