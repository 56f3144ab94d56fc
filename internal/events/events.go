// Package events publishes what the moderator does so it can be audited
// outside the process.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindMonitorStarted Kind = "monitor_started"
	KindMonitorStopped Kind = "monitor_stopped"
	KindMuted          Kind = "muted"
	KindUnmuted        Kind = "unmuted"
)

type Event struct {
	ID       string
	Kind     Kind
	GuildID  string
	UserID   string
	Name     string
	Duration time.Duration
	At       time.Time
	// Reason is free text, e.g. "auto", "manual" or "shutdown" for unmutes.
	Reason string
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// LogPublisher writes events to slog.
type LogPublisher struct{}

func (p *LogPublisher) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		slog.InfoContext(
			ctx,
			"Moderation event",
			slog.String("eventID", e.ID),
			slog.String("kind", string(e.Kind)),
			slog.String("guildID", e.GuildID),
			slog.String("userID", e.UserID),
			slog.String("name", e.Name),
			slog.Duration("duration", e.Duration),
			slog.String("at", e.At.Format(time.RFC3339)),
			slog.String("reason", e.Reason),
		)
	}
	return nil
}

var _ Publisher = (*LogPublisher)(nil)

// MemoryPublisher keeps events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(ctx context.Context, events ...Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

var _ Publisher = (*MemoryPublisher)(nil)

// Fanout publishes to every publisher, returning the first error after
// trying all of them.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, events ...Event) error {
	var firstErr error
	for _, p := range f {
		if err := p.Publish(ctx, events...); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Publisher = Fanout(nil)
