package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glizzus/hush/internal/events"
	"github.com/glizzus/hush/internal/generator"
	"github.com/glizzus/hush/internal/schedule"
)

var ErrAlreadyMuted = errors.New("participant is already muted")

// Muter server-mutes and unmutes guild members.
type Muter interface {
	SetMute(ctx context.Context, guildID, userID string, mute bool) error
}

// Presence reports whether a member is connected to any voice channel of a guild.
type Presence interface {
	InVoice(guildID, userID string) bool
}

type Options struct {
	// Allowance is the talk time before a mute; extended participants get twice as much.
	Allowance    time.Duration
	PollInterval time.Duration
	Escalator    Escalator

	Clock     schedule.Clock
	Publisher events.Publisher
	IDs       generator.Generator[string]
}

type Moderator struct {
	state    *State
	muter    Muter
	presence Presence
	timers   *schedule.Timers

	allowance time.Duration
	poll      time.Duration
	escalator Escalator
	clock     schedule.Clock
	publisher events.Publisher
	ids       generator.Generator[string]

	mu    sync.Mutex
	loops map[string]*loop
}

type loop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func New(state *State, muter Muter, presence Presence, opts Options) *Moderator {
	if opts.Clock == nil {
		opts.Clock = schedule.RealClock
	}
	if opts.Publisher == nil {
		opts.Publisher = &events.LogPublisher{}
	}
	if opts.IDs == nil {
		opts.IDs = &generator.UUIDV4Generator{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}

	return &Moderator{
		state:     state,
		muter:     muter,
		presence:  presence,
		timers:    schedule.NewTimers(opts.Clock),
		allowance: opts.Allowance,
		poll:      opts.PollInterval,
		escalator: opts.Escalator,
		clock:     opts.Clock,
		publisher: opts.Publisher,
		ids:       opts.IDs,
		loops:     make(map[string]*loop),
	}
}

func (m *Moderator) State() *State {
	return m.state
}

func (m *Moderator) Now() time.Time {
	return m.clock.Now()
}

// Allowance is the talk time of a participant without an extension.
func (m *Moderator) Allowance() time.Duration {
	return m.allowance
}

// AllowanceFor returns the talk time the participant currently gets.
func (m *Moderator) AllowanceFor(userID string) time.Duration {
	if m.state.IsExtended(userID) {
		return m.allowance * 2
	}
	return m.allowance
}

// Exceeded reports whether a participant who started talking at start has
// gone over their allowance at now.
func (m *Moderator) Exceeded(userID string, start, now time.Time) bool {
	return now.Sub(start) > m.AllowanceFor(userID)
}

// Monitor puts p under observation. It returns false if p already is.
func (m *Moderator) Monitor(ctx context.Context, p Participant) bool {
	if !m.state.Monitor(p) {
		return false
	}
	m.publish(ctx, events.KindMonitorStarted, p, 0, "")
	return true
}

// Unmonitor removes the participant from observation and stops their
// monitor loop. It returns false if they were not monitored.
func (m *Moderator) Unmonitor(ctx context.Context, userID string) (Participant, bool) {
	p, ok := m.state.Unmonitor(userID)
	m.StopWatching(userID)
	if ok {
		m.publish(ctx, events.KindMonitorStopped, p, 0, "")
	}
	return p, ok
}

// Punish mutes p and schedules the unmute. It returns the mute duration, or
// ErrAlreadyMuted if p is muted already.
func (m *Moderator) Punish(ctx context.Context, p Participant) (time.Duration, error) {
	now := m.clock.Now()
	prev, hasPrev := m.state.Record(p.UserID)
	duration := m.escalator.Next(prev, hasPrev, now)

	entry := MutedEntry{Participant: p, Duration: duration, Since: now}
	if !m.state.MarkMuted(entry) {
		return 0, ErrAlreadyMuted
	}
	if err := m.muter.SetMute(ctx, p.GuildID, p.UserID, true); err != nil {
		m.state.ReleaseMuted(entry)
		return 0, fmt.Errorf("failed to mute %s: %w", p.UserID, err)
	}

	if hasPrev && duration > prev.Duration {
		slog.Info(
			"Escalating mute duration",
			"userID", p.UserID,
			"name", p.Name,
			"previous", prev.Duration,
			"duration", duration,
		)
	}

	m.scheduleUnmute(entry, duration)
	m.publish(ctx, events.KindMuted, p, duration, "")
	return duration, nil
}

func (m *Moderator) scheduleUnmute(entry MutedEntry, d time.Duration) {
	m.timers.Schedule(entry.UserID, d, func() {
		m.autoUnmute(entry)
	})
}

func (m *Moderator) autoUnmute(entry MutedEntry) {
	if !m.state.ReleaseMuted(entry) {
		return
	}

	ctx := context.Background()
	if err := m.muter.SetMute(ctx, entry.GuildID, entry.UserID, false); err != nil {
		slog.Error("failed to unmute after cooldown", "userID", entry.UserID, "name", entry.Name, "error", err)
	} else {
		slog.Info("Unmuted after cooldown", "userID", entry.UserID, "name", entry.Name, "duration", entry.Duration)
	}
	m.recordMute(entry)
	m.publish(ctx, events.KindUnmuted, entry.Participant, entry.Duration, "auto")
}

func (m *Moderator) recordMute(entry MutedEntry) {
	m.state.SetRecord(entry.UserID, MuteRecord{
		Duration: entry.Duration,
		LastMute: m.clock.Now(),
	})
}

// ManualUnmute unmutes p whether or not this process muted them. A pending
// automatic unmute is cancelled and the mute counts as completed now. If the
// unmute fails, a mute of ours stays in place with its original end time.
func (m *Moderator) ManualUnmute(ctx context.Context, p Participant) error {
	m.timers.Cancel(p.UserID)
	entry, owned := m.state.ClearMuted(p.UserID)

	if err := m.muter.SetMute(ctx, p.GuildID, p.UserID, false); err != nil {
		if owned && m.state.MarkMuted(entry) {
			m.scheduleUnmute(entry, max(0, entry.Until().Sub(m.clock.Now())))
		}
		return fmt.Errorf("failed to unmute %s: %w", p.UserID, err)
	}

	var duration time.Duration
	if owned {
		duration = entry.Duration
		m.recordMute(entry)
	}
	m.publish(ctx, events.KindUnmuted, p, duration, "manual")
	return nil
}

// UnmuteAll cancels every pending automatic unmute and unmutes every
// participant this process has muted, once each. A participant whose
// unmute is already in flight is left to it. Failures are logged and do
// not stop the remaining attempts; they are returned joined.
func (m *Moderator) UnmuteAll(ctx context.Context) error {
	m.timers.CancelAll()

	var errs []error
	for _, entry := range m.state.Muted() {
		if !m.state.ReleaseMuted(entry) {
			continue
		}
		if err := m.muter.SetMute(ctx, entry.GuildID, entry.UserID, false); err != nil {
			slog.Error("failed to unmute during shutdown", "userID", entry.UserID, "name", entry.Name, "error", err)
			errs = append(errs, fmt.Errorf("unmute %s: %w", entry.UserID, err))
			continue
		}
		slog.Info("Unmuted during shutdown", "userID", entry.UserID, "name", entry.Name)
		m.publish(ctx, events.KindUnmuted, entry.Participant, entry.Duration, "shutdown")
	}
	return errors.Join(errs...)
}

// PruneRecords forgets mute records that can no longer cause escalation.
func (m *Moderator) PruneRecords() int {
	return m.state.PruneRecords(m.clock.Now().Add(-m.escalator.Threshold))
}

func (m *Moderator) publish(ctx context.Context, kind events.Kind, p Participant, d time.Duration, reason string) {
	id, err := m.ids.Next()
	if err != nil {
		slog.Warn("failed to generate event ID", "error", err)
	}
	event := events.Event{
		ID:       id,
		Kind:     kind,
		GuildID:  p.GuildID,
		UserID:   p.UserID,
		Name:     p.Name,
		Duration: d,
		At:       m.clock.Now(),
		Reason:   reason,
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish moderation event", "kind", kind, "userID", p.UserID, "error", err)
	}
}
