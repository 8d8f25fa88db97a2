// Package bootstrap opens the backing services shared by the server and the
// operator CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/rumorpulse/internal/adapter/memory"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/adapter/postgres"
	"github.com/pscheid92/rumorpulse/internal/adapter/redis"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/platform/config"
	"github.com/pscheid92/rumorpulse/internal/platform/retry"
	goredis "github.com/redis/go-redis/v9"
)

// Store is a store together with the function that releases it.
type Store struct {
	domain.Store
	Close func()
}

// OpenStore returns the in-memory store when no DATABASE_URL is configured.
// Otherwise it dials Postgres with the startup retry policy and applies
// pending migrations under the advisory lock. m may be nil.
func OpenStore(ctx context.Context, cfg *config.Config, m *metrics.StoreMetrics) (*Store, error) {
	if cfg.InMemory() {
		slog.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		return &Store{Store: memory.NewStore(), Close: func() {}}, nil
	}

	pool, err := retry.Do(ctx, startupPolicy("postgres"), retry.Unavailable, func(ctx context.Context) (*pgxpool.Pool, error) {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return postgres.Connect(dialCtx, cfg.DatabaseURL, m)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{Store: postgres.NewStore(pool), Close: pool.Close}, nil
}

// OpenRedis returns nil without error when REDIS_URL is empty.
func OpenRedis(ctx context.Context, cfg *config.Config, m *metrics.RedisMetrics) (*goredis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	rdb, err := retry.Do(ctx, startupPolicy("redis"), retry.Unavailable, func(ctx context.Context) (*goredis.Client, error) {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return redis.NewClient(dialCtx, cfg.RedisURL, m)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// Leader returns the Redis lease for the finalizer, or nil when rdb is nil.
func Leader(rdb *goredis.Client, cfg *config.Config, m *metrics.RedisMetrics) *redis.LeaderElector {
	if rdb == nil {
		return nil
	}
	return redis.NewLeaderElector(rdb, cfg.InstanceID, redis.DefaultLeaderKey, cfg.LeaderLeaseTTL, m)
}

// VoteLimiter returns the per-identity vote limiter, or nil when Redis is
// not configured or VOTE_RATE_BURST is zero.
func VoteLimiter(rdb *goredis.Client, cfg *config.Config, clock clockwork.Clock) *redis.VoteLimiter {
	if rdb == nil || cfg.VoteRateBurst == 0 {
		return nil
	}
	return redis.NewVoteLimiter(rdb, clock, cfg.VoteRateBurst, cfg.VoteRatePerMinute)
}

func startupPolicy(service string) retry.Policy {
	p := retry.Startup
	p.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Backing service not ready, retrying", "service", service, "attempt", attempt, "backoff", backoff, "error", err)
	}
	return p
}
