package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/payschedule/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
	Scheduler  SchedulerConfig  `validate:"required"`
	Cache      CacheConfig
	Postgres   PostgresConfig
	Events     EventConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// BillingConfig holds the defaults applied when a subscription request leaves them out
type BillingConfig struct {
	DefaultCurrency   string                  `mapstructure:"default_currency" validate:"required,len=3"`
	Timezone          string                  `mapstructure:"timezone" validate:"required"`
	ProrationStrategy types.ProrationStrategy `mapstructure:"proration_strategy" validate:"required"`
}

// SchedulerConfig drives the follow-up payment run
type SchedulerConfig struct {
	Interval    time.Duration `mapstructure:"interval" validate:"required"`
	Lookahead   time.Duration `mapstructure:"lookahead"`
	BatchSize   int           `mapstructure:"batch_size" validate:"required,min=1"`
	Concurrency int           `mapstructure:"concurrency" validate:"required,min=1"`
	RateLimit   float64       `mapstructure:"rate_limit" validate:"gte=0"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/payschedule")

	v.SetEnvPrefix("PAYSCHEDULE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()
	v.SetDefault("deployment.mode", d.Deployment.Mode)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("billing.default_currency", d.Billing.DefaultCurrency)
	v.SetDefault("billing.timezone", d.Billing.Timezone)
	v.SetDefault("billing.proration_strategy", d.Billing.ProrationStrategy)
	v.SetDefault("scheduler.interval", d.Scheduler.Interval)
	v.SetDefault("scheduler.lookahead", d.Scheduler.Lookahead)
	v.SetDefault("scheduler.batch_size", d.Scheduler.BatchSize)
	v.SetDefault("scheduler.concurrency", d.Scheduler.Concurrency)
	v.SetDefault("scheduler.rate_limit", d.Scheduler.RateLimit)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("events.enabled", d.Events.Enabled)
	v.SetDefault("events.topic", d.Events.Topic)
	v.SetDefault("events.buffer", d.Events.Buffer)
	v.SetDefault("events.max_retries", d.Events.MaxRetries)
	v.SetDefault("events.initial_interval", d.Events.InitialInterval)
	v.SetDefault("events.max_retry_elapsed", d.Events.MaxRetryElapsed)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Billing.Timezone); err != nil {
		return fmt.Errorf("invalid billing timezone %q: %w", c.Billing.Timezone, err)
	}
	return c.Billing.ProrationStrategy.Validate()
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts, the CLI and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Billing: BillingConfig{
			DefaultCurrency:   "EUR",
			Timezone:          "UTC",
			ProrationStrategy: types.ProrationStrategyCalendarYear,
		},
		Scheduler: SchedulerConfig{
			Interval:    time.Hour,
			Lookahead:   0,
			BatchSize:   100,
			Concurrency: 4,
			RateLimit:   0,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
		},
		Events: EventConfig{
			Enabled:         true,
			Topic:           "subscription_events",
			Buffer:          100,
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxRetryElapsed: 5 * time.Second,
		},
	}
}

// Location returns the billing timezone, falling back to UTC
func (c BillingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

// Enabled reports whether a postgres host is configured
func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}
