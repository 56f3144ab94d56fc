package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher appends events to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

func (p *RedisPublisher) Publish(ctx context.Context, events ...Event) error {
	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range events {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: p.stream,
				Values: EventToValues(e),
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish %d events to %s: %w", len(events), p.stream, err)
	}
	return nil
}

var _ Publisher = (*RedisPublisher)(nil)

func EventToValues(e Event) map[string]any {
	return map[string]any{
		"eventID":    e.ID,
		"kind":       string(e.Kind),
		"guildID":    e.GuildID,
		"userID":     e.UserID,
		"name":       e.Name,
		"durationMs": strconv.FormatInt(e.Duration.Milliseconds(), 10),
		"at":         e.At.UTC().Format(time.RFC3339Nano),
		"reason":     e.Reason,
	}
}

func EventFromValues(values map[string]any) (Event, error) {
	str := func(key string) string {
		v, _ := values[key].(string)
		return v
	}

	e := Event{
		ID:      str("eventID"),
		Kind:    Kind(str("kind")),
		GuildID: str("guildID"),
		UserID:  str("userID"),
		Name:    str("name"),
		Reason:  str("reason"),
	}

	if raw := str("durationMs"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Event{}, fmt.Errorf("invalid durationMs %q: %w", raw, err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
	}
	if raw := str("at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Event{}, fmt.Errorf("invalid at %q: %w", raw, err)
		}
		e.At = at
	}
	return e, nil
}

// ReadRecent returns up to n of the newest events in the stream, newest first.
func ReadRecent(ctx context.Context, client *redis.Client, stream string, n int64) ([]Event, error) {
	messages, err := client.XRevRangeN(ctx, stream, "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", stream, err)
	}

	result := make([]Event, 0, len(messages))
	for _, msg := range messages {
		e, err := EventFromValues(msg.Values)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", msg.ID, err)
		}
		result = append(result, e)
	}
	return result, nil
}
