// Package config loads replybot settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Config holds the runtime settings. Values come from the environment; the
// serve command additionally loads a .env file first.
type Config struct {
	ListenAddr   string `env:"LISTEN_ADDR" envDefault:":8080"`
	DBPath       string `env:"REPLYBOT_DB" envDefault:"data/replybot.db"`
	DefaultReply string `env:"DEFAULT_REPLY" envDefault:"How can I help you today?"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

// New parses the configuration from the environment.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
