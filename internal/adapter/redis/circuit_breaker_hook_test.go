package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(context.Context, goredis.Cmder) error    { return errors.New("connection refused") }
func succeeding(context.Context, goredis.Cmder) error { return nil }

func drive(t *testing.T, hook *CircuitBreakerHook, next goredis.ProcessHook, n int) {
	t.Helper()
	ctx := context.Background()
	for range n {
		_ = hook.ProcessHook(next)(ctx, goredis.NewStringCmd(ctx, "get", "key"))
	}
}

func fastHook(m *metrics.RedisMetrics) *CircuitBreakerHook {
	return newCircuitBreakerHook(gobreaker.Settings{
		Name:        "redis-test",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     50 * time.Millisecond,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	}, m)
}

func TestCircuitBreakerHook_StaysClosedOnSuccess(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	drive(t, hook, succeeding, 10)

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	counts := hook.Counts()
	assert.Equal(t, uint32(10), counts.Requests)
	assert.Equal(t, uint32(10), counts.TotalSuccesses)
}

func TestCircuitBreakerHook_TransientFailuresDoNotTrip(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	drive(t, hook, failing, 2)
	drive(t, hook, succeeding, 3)

	assert.Equal(t, gobreaker.StateClosed, hook.State())
}

func TestCircuitBreakerHook_OpensAfterSustainedFailures(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	drive(t, hook, failing, 5)

	assert.Equal(t, gobreaker.StateOpen, hook.State())
}

func TestCircuitBreakerHook_FailsFastWhenOpen(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)
	drive(t, hook, failing, 5)
	require.Equal(t, gobreaker.StateOpen, hook.State())

	called := false
	ctx := context.Background()
	cmd := goredis.NewStatusCmd(ctx, "set", "key", "value")
	err := hook.ProcessHook(func(context.Context, goredis.Cmder) error {
		called = true
		return nil
	})(ctx, cmd)

	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, cmd.Err(), gobreaker.ErrOpenState)
	assert.False(t, called, "Redis should not be called when circuit is open")
}

func TestCircuitBreakerHook_NilAndServerRepliesAreHealthy(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	drive(t, hook, func(context.Context, goredis.Cmder) error { return goredis.Nil }, 10)

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	assert.True(t, healthy(goredis.Nil))
	assert.False(t, healthy(errors.New("i/o timeout")))
}

func TestCircuitBreakerHook_RecoversThroughHalfOpen(t *testing.T) {
	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	hook := fastHook(m)

	drive(t, hook, failing, 3)
	require.Equal(t, gobreaker.StateOpen, hook.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState))

	time.Sleep(80 * time.Millisecond)
	drive(t, hook, succeeding, 1)
	assert.Equal(t, gobreaker.StateHalfOpen, hook.State())

	drive(t, hook, succeeding, 1)
	assert.Equal(t, gobreaker.StateClosed, hook.State())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerState))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues("open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues("half-open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues("closed")))
}

func TestCircuitBreakerHook_PipelineFailsWhenOpen(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)
	drive(t, hook, failing, 5)
	require.Equal(t, gobreaker.StateOpen, hook.State())

	ctx := context.Background()
	err := hook.ProcessPipelineHook(func(context.Context, []goredis.Cmder) error {
		t.Fatal("Redis pipeline should not be called")
		return nil
	})(ctx, []goredis.Cmder{goredis.NewStringCmd(ctx, "get", "a")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestStateToFloat(t *testing.T) {
	tests := []struct {
		state    gobreaker.State
		expected float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
		{gobreaker.State(42), -1},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, stateToFloat(tt.state))
		})
	}
}
