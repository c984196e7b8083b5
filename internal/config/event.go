package config

import "time"

// EventConfig holds configuration for subscription lifecycle events
type EventConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Topic   string `mapstructure:"topic" validate:"required_if=Enabled true"`
	Buffer  int64  `mapstructure:"buffer"`
	// MaxRetries and InitialInterval drive both publish retries and
	// handler retries in the event router
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	// MaxRetryElapsed bounds both publish retries and handler retries
	MaxRetryElapsed time.Duration `mapstructure:"max_retry_elapsed"`
}
