package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glizzus/hush/internal/config"
	"github.com/glizzus/hush/internal/events"
	"github.com/glizzus/hush/internal/handler"
	"github.com/glizzus/hush/internal/moderation"
	"github.com/glizzus/hush/internal/schedule"
	"github.com/glizzus/hush/internal/voice"
)

const shutdownTimeout = 15 * time.Second

func newPublisher(ctx context.Context, cfg *config.RedisConfig) (events.Publisher, func(), error) {
	logPublisher := &events.LogPublisher{}
	if !cfg.Enabled() {
		slog.Info("REDIS_ADDR not set, moderation events are only logged")
		return logPublisher, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	closeRedis := func() {
		if err := rdb.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	return events.Fanout{logPublisher, events.NewRedisPublisher(rdb, cfg.Stream)}, closeRedis, nil
}

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	loggingConfig, err := config.NewLoggingConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load logging config: %w", err)
	}
	slog.SetLogLoggerLevel(loggingConfig.Level)

	discordConfig, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}

	moderationConfig, err := config.NewModerationConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load moderation config: %w", err)
	}

	redisConfig, err := config.NewRedisConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher, closePublisher, err := newPublisher(ctx, redisConfig)
	if err != nil {
		return err
	}
	defer closePublisher()

	session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
		Ready: handler.ReadyLog,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	moderator := moderation.New(
		moderation.NewState(),
		moderation.NewDiscordMuter(session, moderationConfig.MuteRateLimit),
		moderation.NewStatePresence(session.State),
		moderation.Options{
			Allowance:    moderationConfig.Allowance(),
			PollInterval: moderationConfig.PollInterval,
			Escalator: moderation.Escalator{
				Base:      moderationConfig.BaseMuteDuration,
				Threshold: moderationConfig.MuteThreshold,
			},
			Publisher: publisher,
		},
	)
	connector := voice.NewConnector(
		voice.NewSessionGateway(session),
		moderationConfig.ChannelID,
		moderationConfig.VoiceConnectTimeout,
	)

	router := handler.NewCommandRouter(
		discordConfig.CommandPrefix,
		handler.NewModerationCommands(moderator, connector, handler.NewSessionMembers(session)),
	)
	handler.Handlers{
		MessageCreate:    router.Handler(ctx),
		VoiceStateUpdate: handler.NewVoiceStateWatcher(moderator, connector).Handler(ctx),
	}.AddTo(session)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	go func() {
		err := schedule.Every(ctx, schedule.RealClock, moderationConfig.PruneSchedule, func(ctx context.Context) {
			if n := moderator.PruneRecords(); n > 0 {
				slog.Debug("Pruned stale mute records", "count", n)
			}
		})
		if err != nil {
			slog.Error("record pruning stopped", "error", err)
		}
	}()

	slog.Info("Moderating talk time", "channelID", moderationConfig.ChannelID, "allowance", moderationConfig.Allowance())
	<-ctx.Done()
	slog.Info("Shutting down")

	moderator.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := moderator.UnmuteAll(shutdownCtx); err != nil {
		slog.Error("failed to unmute some participants during shutdown", "error", err)
	}
	return nil
}

func main() {
	if err := runBotForever(); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
