package e2e

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/glizzus/hush/internal/generator"
)

// SnowflakeGenerator hands out unique snowflake-shaped IDs so tests sharing
// a Redis instance do not see each other's guilds or streams.
type SnowflakeGenerator struct {
	counter uint64
}

func (g *SnowflakeGenerator) Next() (string, error) {
	const min = 1e17
	atomic.CompareAndSwapUint64(&g.counter, 0, min)
	id := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%d", id), nil
}

var _ generator.Generator[string] = (*SnowflakeGenerator)(nil)

var Snowflakes = &SnowflakeGenerator{}

var (
	once           sync.Once
	redisContainer *tcredis.RedisContainer
	redisOptions   *redis.Options
	startErr       error
	wg             sync.WaitGroup
)

// UseRedis signals that the test is publishing to Redis. This will either
// provision or reuse a Redis container for the test. The instance is shared
// across tests, so each test should use its own stream.
func UseRedis(t *testing.T) *redis.Client {
	t.Helper()

	once.Do(func() {
		ctx := context.Background()
		redisContainer, startErr = tcredis.Run(ctx, "redis:7")
		if startErr != nil {
			return
		}
		var uri string
		uri, startErr = redisContainer.ConnectionString(ctx)
		if startErr != nil {
			return
		}
		redisOptions, startErr = redis.ParseURL(uri)
	})

	if startErr != nil {
		t.Fatalf("failed to start redis container: %v", startErr)
	}
	wg.Add(1)
	t.Cleanup(wg.Done)

	client := redis.NewClient(redisOptions)
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("failed to close redis client: %v", err)
		}
	})
	return client
}

// StreamName returns a stream name no other test uses.
func StreamName(t *testing.T) string {
	t.Helper()
	id, _ := Snowflakes.Next()
	return "hush_e2e_" + id
}

func TerminateRedisForE2E() {
	wg.Wait()
	if redisContainer != nil {
		err := redisContainer.Terminate(context.Background())
		if err != nil {
			fmt.Printf("failed to terminate redis container: %v", err)
		}
	}
}
