package config

import (
	"context"
	"log/slog"

	"github.com/sethvargo/go-envconfig"
)

type LoggingConfig struct {
	Level slog.Level `env:"LOG_LEVEL, default=info"`
}

func NewLoggingConfigFromEnv() (*LoggingConfig, error) {
	var cfg LoggingConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
