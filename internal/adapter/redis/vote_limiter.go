package redis

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/rumorpulse/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const voteLimitKeyPrefix = "rumorpulse:ratelimit:votes:"

// tokenBucketScript refills the bucket for the time elapsed since the last
// call, then takes one token if available. The key expires once a full
// bucket would have refilled.
// ARGV: [1]=now_ms, [2]=capacity, [3]=tokens per minute
var tokenBucketScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local bucket = redis.call('HMGET', KEYS[1], 'tokens', 'updated')
local tokens = tonumber(bucket[1]) or capacity
local updated = tonumber(bucket[2]) or now
local elapsed = math.max(0, now - updated)
tokens = math.min(capacity, tokens + elapsed * rate / 60000)
local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end
redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'updated', tostring(now))
redis.call('PEXPIRE', KEYS[1], math.ceil(capacity * 60000 / rate) + 1000)
return allowed
`)

// VoteLimiter is a per-identity token bucket shared by all instances.
type VoteLimiter struct {
	rdb       *goredis.Client
	clock     clockwork.Clock
	capacity  int
	perMinute int
}

// NewVoteLimiter allows bursts of capacity votes, refilled at perMinute.
func NewVoteLimiter(rdb *goredis.Client, clock clockwork.Clock, capacity, perMinute int) *VoteLimiter {
	return &VoteLimiter{
		rdb:       rdb,
		clock:     clock,
		capacity:  capacity,
		perMinute: perMinute,
	}
}

// AllowVote takes a token from the voter's bucket.
func (v *VoteLimiter) AllowVote(ctx context.Context, voter domain.IdentityID) (bool, error) {
	allowed, err := tokenBucketScript.Run(ctx, v.rdb,
		[]string{voteLimitKeyPrefix + voter.String()},
		v.clock.Now().UnixMilli(),
		v.capacity,
		v.perMinute,
	).Int()
	if err != nil {
		return false, fmt.Errorf("vote rate limit check failed: %w", err)
	}
	return allowed == 1, nil
}
