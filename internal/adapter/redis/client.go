package redis

import (
	"context"
	"fmt"

	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient parses redisURL, installs the metrics and circuit breaker hooks
// and verifies the connection. m may be nil. A failed ping wraps
// domain.ErrStoreUnavailable so callers can retry it.
func NewClient(ctx context.Context, redisURL string, m *metrics.RedisMetrics) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if m != nil {
		rdb.AddHook(NewMetricsHook(m))
	}
	rdb.AddHook(NewCircuitBreakerHook(m))

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return rdb, nil
}
