package events_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/glizzus/hush/internal/events"
)

func TestRedisPublisher(t *testing.T) {
	ctx := t.Context()
	redisContainer, err := tcredis.Run(ctx, "redis:7")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	defer func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate redis container: %v", err)
		}
	}()

	uri, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("failed to parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	at := time.Date(2024, 5, 4, 20, 15, 0, 0, time.UTC)
	published := []events.Event{
		{
			ID:       "e1",
			Kind:     events.KindMuted,
			GuildID:  "517907971481534467",
			UserID:   "80351110224678912",
			Name:     "loudmouth",
			Duration: 30 * time.Second,
			At:       at,
		},
		{
			ID:       "e2",
			Kind:     events.KindUnmuted,
			GuildID:  "517907971481534467",
			UserID:   "80351110224678912",
			Name:     "loudmouth",
			Duration: 30 * time.Second,
			At:       at.Add(30 * time.Second),
			Reason:   "auto",
		},
	}

	publisher := events.NewRedisPublisher(client, "hush_test_events")
	if err := publisher.Publish(ctx, published...); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	t.Run("Events should be readable newest first", func(t *testing.T) {
		got, err := events.ReadRecent(ctx, client, "hush_test_events", 10)
		if err != nil {
			t.Fatalf("failed to read events: %v", err)
		}
		want := []events.Event{published[1], published[0]}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ReadRecent() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ReadRecent should honour the limit", func(t *testing.T) {
		got, err := events.ReadRecent(ctx, client, "hush_test_events", 1)
		if err != nil {
			t.Fatalf("failed to read events: %v", err)
		}
		if len(got) != 1 || got[0].ID != "e2" {
			t.Errorf("expected only the newest event, got %+v", got)
		}
	})
}
