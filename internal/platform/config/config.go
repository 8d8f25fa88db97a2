package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`
	InstanceID  string `env:"INSTANCE_ID"`

	FinalizeInterval   time.Duration `env:"FINALIZE_INTERVAL" default:"60s"`
	FinalizeBatchSize  int           `env:"FINALIZE_BATCH_SIZE" default:"500"`
	ReputationCacheTTL time.Duration `env:"REPUTATION_CACHE_TTL" default:"5m"`
	MinClaimDuration   time.Duration `env:"MIN_CLAIM_DURATION" default:"1m"`
	MaxClaimDuration   time.Duration `env:"MAX_CLAIM_DURATION" default:"720h"` // 30 days
	LeaderLeaseTTL     time.Duration `env:"LEADER_LEASE_TTL" default:"30s"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"5"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"20"`

	// Per-identity vote limit, enforced only with Redis. A zero burst disables it.
	VoteRateBurst     int `env:"VOTE_RATE_BURST" default:"30"`
	VoteRatePerMinute int `env:"VOTE_RATE_PER_MINUTE" default:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = defaultInstanceID()
	}

	return &cfg, nil
}

// InMemory reports whether the service runs without Postgres.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == ""
}

func validate(cfg *Config) error {
	if cfg.AppEnv == "production" && cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required in production")
	}

	positive := map[string]time.Duration{
		"FINALIZE_INTERVAL":    cfg.FinalizeInterval,
		"REPUTATION_CACHE_TTL": cfg.ReputationCacheTTL,
		"MIN_CLAIM_DURATION":   cfg.MinClaimDuration,
		"MAX_CLAIM_DURATION":   cfg.MaxClaimDuration,
		"LEADER_LEASE_TTL":     cfg.LeaderLeaseTTL,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if cfg.MinClaimDuration > cfg.MaxClaimDuration {
		return errors.New("MIN_CLAIM_DURATION must not exceed MAX_CLAIM_DURATION")
	}
	if cfg.FinalizeBatchSize < 1 {
		return errors.New("FINALIZE_BATCH_SIZE must be at least 1")
	}
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	if cfg.VoteRateBurst < 0 || (cfg.VoteRateBurst > 0 && cfg.VoteRatePerMinute < 1) {
		return errors.New("VOTE_RATE_BURST must not be negative and VOTE_RATE_PER_MINUTE must be positive when it is set")
	}

	return nil
}

// defaultInstanceID identifies this process in the finalizer leader lease.
func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
