package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// DefaultLeaderKey holds the finalizer lease.
	DefaultLeaderKey = "rumorpulse:finalizer:leader"
	DefaultLeaseTTL  = 30 * time.Second
)

// ErrNotLeader is returned by Renew when another instance holds the lease
// or the lease expired.
var ErrNotLeader = errors.New("not leader")

var renewScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end
`)

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// LeaderElector is a SETNX lease with a TTL. The holder renews it; when it
// crashes the key expires and another instance takes over.
type LeaderElector struct {
	rdb        *goredis.Client
	instanceID string
	key        string
	ttl        time.Duration
	m          *metrics.RedisMetrics
}

// NewLeaderElector creates a lease coordinator. instanceID must be unique per
// process (hostname-pid works). A non-positive ttl selects DefaultLeaseTTL.
// m may be nil.
func NewLeaderElector(rdb *goredis.Client, instanceID, key string, ttl time.Duration, m *metrics.RedisMetrics) *LeaderElector {
	if key == "" {
		key = DefaultLeaderKey
	}
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &LeaderElector{rdb: rdb, instanceID: instanceID, key: key, ttl: ttl, m: m}
}

// TryAcquire reports whether this instance now holds the lease.
func (l *LeaderElector) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.instanceID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire leader lock: %w", err)
	}
	if ok {
		slog.InfoContext(ctx, "Acquired finalizer lease", "instance_id", l.instanceID, "ttl", l.ttl)
		l.event("acquired")
	}
	return ok, nil
}

// Renew extends the lease if this instance still holds it.
func (l *LeaderElector) Renew(ctx context.Context) error {
	res, err := renewScript.Run(ctx, l.rdb, []string{l.key}, l.instanceID, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("failed to renew leader lock: %w", err)
	}
	if res == 0 {
		l.event("lost")
		return ErrNotLeader
	}
	return nil
}

// Release drops the lease if this instance holds it. Called on shutdown.
func (l *LeaderElector) Release(ctx context.Context) error {
	res, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.instanceID).Int64()
	if err != nil {
		return fmt.Errorf("failed to release leader lock: %w", err)
	}
	if res == 1 {
		l.event("released")
	}
	return nil
}

// Holder returns the instance currently holding the lease, or "" if none.
func (l *LeaderElector) Holder(ctx context.Context) (string, error) {
	id, err := l.rdb.Get(ctx, l.key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read leader lock: %w", err)
	}
	return id, nil
}

func (l *LeaderElector) event(name string) {
	if l.m != nil {
		l.m.LeaderEvents.WithLabelValues(name).Inc()
	}
}
