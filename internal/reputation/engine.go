package reputation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a cached reputation is served without recomputation.
const DefaultCacheTTL = 5 * time.Minute

// Store is the subset of store operations the engine reads and writes.
type Store interface {
	domain.ReputationSource
	domain.ReputationCacheRepository
}

// Engine serves reputations from the cache while fresh and recomputes them
// otherwise. Concurrent recomputes for one identity are collapsed.
type Engine struct {
	store   Store
	clock   clockwork.Clock
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.ReputationMetrics
}

// NewEngine creates an engine. A non-positive ttl selects DefaultCacheTTL.
// m may be nil.
func NewEngine(store Store, clock clockwork.Clock, ttl time.Duration, m *metrics.ReputationMetrics) *Engine {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Engine{
		store:   store,
		clock:   clock,
		ttl:     ttl,
		metrics: m,
	}
}

// TTL returns the cache freshness window.
func (e *Engine) TTL() time.Duration {
	return e.ttl
}

// Reputation returns the identity's reputation, recomputing and caching it
// when the cached value is absent or older than the TTL.
func (e *Engine) Reputation(ctx context.Context, id domain.IdentityID) (float64, error) {
	now := e.clock.Now()

	cached, err := e.store.GetCachedReputation(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to read reputation cache: %w", err)
	}
	if cached != nil && now.Sub(cached.ComputedAt) < e.ttl {
		if e.metrics != nil {
			e.metrics.CacheHits.Inc()
		}
		return cached.Reputation, nil
	}
	if e.metrics != nil {
		reason := "absent"
		if cached != nil {
			reason = "stale"
		}
		e.metrics.CacheMisses.WithLabelValues(reason).Inc()
	}

	// The shared recompute outlives any single caller; each caller stops
	// waiting on its own cancellation.
	ch := e.group.DoChan(id.String(), func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		rep, err := e.Recompute(ctx, e.store, id, now)
		if err != nil {
			return nil, err
		}
		entry := domain.CachedReputation{IdentityID: id, Reputation: rep, ComputedAt: now}
		if err := e.store.UpsertCachedReputation(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to cache reputation: %w", err)
		}
		return rep, nil
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	}
}

// Recompute derives the reputation from src as of asOf without touching the
// cache. Passing a transaction handle as src reads the transaction's view.
func (e *Engine) Recompute(ctx context.Context, src domain.ReputationSource, id domain.IdentityID, asOf time.Time) (float64, error) {
	start := e.clock.Now()

	votes, err := src.ListScoredVotes(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to list scored votes: %w", err)
	}
	penalties, err := src.SumPenalties(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to sum penalties: %w", err)
	}

	rep := Compute(votes, penalties, asOf)

	if e.metrics != nil {
		e.metrics.RecomputeDuration.Observe(e.clock.Since(start).Seconds())
	}
	slog.DebugContext(ctx, "Reputation recomputed", "identity", id, "reputation", rep, "votes", len(votes))
	return rep, nil
}

// WeightFor returns the identity's current vote weight.
func (e *Engine) WeightFor(ctx context.Context, id domain.IdentityID) (float64, error) {
	rep, err := e.Reputation(ctx, id)
	if err != nil {
		return 0, err
	}
	return Weight(rep), nil
}

// Invalidate drops the cached reputation of every distinct id through q,
// which may be a transaction handle.
func (e *Engine) Invalidate(ctx context.Context, q domain.ReputationCacheRepository, ids ...domain.IdentityID) error {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[domain.IdentityID]struct{}, len(ids))
	unique := make([]domain.IdentityID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	if err := q.InvalidateReputation(ctx, unique...); err != nil {
		return fmt.Errorf("failed to invalidate reputation cache: %w", err)
	}
	if e.metrics != nil {
		e.metrics.Invalidations.Add(float64(len(unique)))
	}
	return nil
}
