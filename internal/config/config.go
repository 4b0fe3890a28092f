package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	AuthorityBaseURL     string `env:"AUTHORITY_BASE_URL,required=true"`
	AuthorityAPIKey      string `env:"AUTHORITY_API_KEY,required=true"`
	DatabaseDSN          string `env:"DATABASE_DSN,required=true"`
	RedisURL             string `env:"REDIS_URL,required=true"`
	RabbitMQURL          string `env:"RABBITMQ_URL,required=true"`
	PollIntervalSec      int    `env:"POLL_INTERVAL_SEC,default=30"`
	MaxPollDurationMin   int    `env:"MAX_POLL_DURATION_MIN,default=30"`
	DiscoveryIntervalSec int    `env:"DISCOVERY_INTERVAL_SEC,default=60"`
	APIPort              int    `env:"API_PORT,default=8080"`
	LogLevel             string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PollIntervalSec <= 0 {
		return fmt.Errorf("poll interval must be positive (got %d)", c.PollIntervalSec)
	}
	if c.MaxPollDuration() < c.PollInterval() {
		return fmt.Errorf("max poll duration %s must be at least the poll interval %s",
			c.MaxPollDuration(), c.PollInterval())
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

func (c *Config) MaxPollDuration() time.Duration {
	return time.Duration(c.MaxPollDurationMin) * time.Minute
}

func (c *Config) DiscoveryInterval() time.Duration {
	return time.Duration(c.DiscoveryIntervalSec) * time.Second
}
