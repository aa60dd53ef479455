package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
// It exits the process when the environment cannot be parsed.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}
	return cfg
}

// Parse builds a Config from the current environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxMatchAttempts < 1 {
		return Config{}, fmt.Errorf("MAX_MATCH_ATTEMPTS must be at least 1, got %d", cfg.MaxMatchAttempts)
	}
	return cfg, nil
}

// SlackEnabled reports whether Slack credentials were provided.
func (c Config) SlackEnabled() bool {
	return c.Slack.Token != "" && c.Slack.ChannelID != ""
}

// PubSubEnabled reports whether a GCP project was configured.
func (c Config) PubSubEnabled() bool {
	return c.PubSub.ProjectID != ""
}
