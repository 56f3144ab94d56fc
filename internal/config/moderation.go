package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/glizzus/hush/internal/schedule"
)

// ModerationConfig holds the knobs of the talk-time moderator.
// MaxTalkDuration is expressed in whole seconds to stay compatible with
// existing deployments; everything else is a Go duration string.
type ModerationConfig struct {
	ChannelID           string        `env:"CHANNEL_ID, required"`
	MaxTalkDuration     int           `env:"MAX_TALK_DURATION, required"`
	BaseMuteDuration    time.Duration `env:"BASE_MUTE_DURATION, default=30s"`
	MuteThreshold       time.Duration `env:"MUTE_THRESHOLD, default=60s"`
	PollInterval        time.Duration `env:"POLL_INTERVAL, default=1s"`
	VoiceConnectTimeout time.Duration `env:"VOICE_CONNECT_TIMEOUT, default=30s"`
	PruneSchedule       string        `env:"PRUNE_SCHEDULE, default=*/10 * * * *"`
	MuteRateLimit       float64       `env:"MUTE_RATE_LIMIT, default=5"`
}

func NewModerationConfigFromEnv() (*ModerationConfig, error) {
	return NewModerationConfig(context.Background(), envconfig.OsLookuper())
}

func NewModerationConfig(ctx context.Context, lookuper envconfig.Lookuper) (*ModerationConfig, error) {
	var cfg ModerationConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *ModerationConfig) validate() error {
	if c.MaxTalkDuration <= 0 {
		return fmt.Errorf("MAX_TALK_DURATION must be a positive number of seconds, got %d", c.MaxTalkDuration)
	}
	if c.BaseMuteDuration <= 0 {
		return fmt.Errorf("BASE_MUTE_DURATION must be positive, got %s", c.BaseMuteDuration)
	}
	if c.MuteThreshold < 0 {
		return fmt.Errorf("MUTE_THRESHOLD must not be negative, got %s", c.MuteThreshold)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.VoiceConnectTimeout <= 0 {
		return fmt.Errorf("VOICE_CONNECT_TIMEOUT must be positive, got %s", c.VoiceConnectTimeout)
	}
	if c.MuteRateLimit <= 0 {
		return fmt.Errorf("MUTE_RATE_LIMIT must be positive, got %v", c.MuteRateLimit)
	}
	if err := schedule.ValidateCron(c.PruneSchedule); err != nil {
		return fmt.Errorf("PRUNE_SCHEDULE: %w", err)
	}
	return nil
}

// Allowance is the talk time a participant gets before being muted.
func (c *ModerationConfig) Allowance() time.Duration {
	return time.Duration(c.MaxTalkDuration) * time.Second
}
