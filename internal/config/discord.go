package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

type DiscordConfig struct {
	Token         string `env:"DISCORD_TOKEN, required"`
	CommandPrefix string `env:"COMMAND_PREFIX, default=!"`
}

func NewDiscordConfigFromEnv() (*DiscordConfig, error) {
	return NewDiscordConfig(context.Background(), envconfig.OsLookuper())
}

func NewDiscordConfig(ctx context.Context, lookuper envconfig.Lookuper) (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.CommandPrefix) == "" {
		return nil, fmt.Errorf("COMMAND_PREFIX must not be blank")
	}

	return &cfg, nil
}
