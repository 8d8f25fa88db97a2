package app

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/platform/correlation"
	"github.com/pscheid92/rumorpulse/internal/reputation"
)

const (
	DefaultFinalizeInterval  = time.Minute
	DefaultFinalizeBatchSize = 500
)

// Leader is a lease that lets one instance out of many run the sweep.
type Leader interface {
	TryAcquire(ctx context.Context) (bool, error)
	Renew(ctx context.Context) error
	Release(ctx context.Context) error
}

// SweepResult summarizes one FinalizeDue pass.
type SweepResult struct {
	Due       int
	Finalized int
	Skipped   int
	Failed    int
	Err       error
}

// Finalizer turns claims whose deadline has passed into immutable outcomes.
// FinalizeDue runs a single sweep; Run drives it on a ticker.
type Finalizer struct {
	store     domain.Store
	engine    *reputation.Engine
	clock     clockwork.Clock
	interval  time.Duration
	batchSize int
	leader    Leader
	metrics   *metrics.FinalizerMetrics

	leading bool
}

// NewFinalizer creates a finalizer. leader and m may be nil; without a leader
// every instance sweeps and the store's uniqueness on outcomes arbitrates.
func NewFinalizer(store domain.Store, engine *reputation.Engine, clock clockwork.Clock, interval time.Duration, batchSize int, leader Leader, m *metrics.FinalizerMetrics) *Finalizer {
	if interval <= 0 {
		interval = DefaultFinalizeInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultFinalizeBatchSize
	}
	if m == nil {
		m = metrics.NewFinalizerMetrics(prometheus.NewRegistry())
	}
	return &Finalizer{
		store:     store,
		engine:    engine,
		clock:     clock,
		interval:  interval,
		batchSize: batchSize,
		leader:    leader,
		metrics:   m,
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (f *Finalizer) Run(ctx context.Context) {
	ticker := f.clock.NewTicker(f.interval)
	defer ticker.Stop()
	defer f.release()

	f.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			f.tick(ctx)
		}
	}
}

func (f *Finalizer) tick(ctx context.Context) {
	ctx = correlation.WithID(ctx, correlation.NewID())

	if !f.holdLease(ctx) {
		f.metrics.Sweeps.WithLabelValues("skipped_not_leader").Inc()
		return
	}

	res := f.FinalizeDue(ctx)
	if res.Due > 0 || res.Err != nil {
		slog.InfoContext(ctx, "Finalization sweep complete", "due", res.Due, "finalized", res.Finalized, "skipped", res.Skipped, "failed", res.Failed)
	}
}

func (f *Finalizer) holdLease(ctx context.Context) bool {
	if f.leader == nil {
		return true
	}

	if f.leading {
		err := f.leader.Renew(ctx)
		if err == nil {
			return true
		}
		slog.DebugContext(ctx, "Finalizer lease lapsed", "error", err)
		f.leading = false
	}

	ok, err := f.leader.TryAcquire(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Finalizer lease acquisition failed", "error", err)
		return false
	}
	if ok {
		slog.InfoContext(ctx, "Finalizer lease acquired")
	}
	f.leading = ok
	return ok
}

func (f *Finalizer) release() {
	if f.leader == nil || !f.leading {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.leader.Release(ctx); err != nil {
		slog.Warn("Failed to release finalizer lease", "error", err)
	}
	f.leading = false
}

// FinalizeDue finalizes every claim whose deadline is at or before now and
// which has no outcome yet. Claims are finalized independently: a failing
// claim is logged and counted and picked up again by the next sweep.
func (f *Finalizer) FinalizeDue(ctx context.Context) SweepResult {
	start := f.clock.Now()
	defer func() {
		f.metrics.SweepDuration.Observe(f.clock.Since(start).Seconds())
	}()

	due, err := f.store.ListDueClaims(ctx, start, f.batchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list due claims", "error", err)
		f.metrics.Sweeps.WithLabelValues("failed").Inc()
		return SweepResult{Err: err}
	}

	res := SweepResult{Due: len(due)}
	for _, claim := range due {
		outcome, err := f.finalizeClaim(ctx, claim, start)
		switch {
		case err == nil:
			res.Finalized++
			f.metrics.ClaimsFinalized.WithLabelValues(strconv.FormatBool(outcome.Outcome)).Inc()
			slog.InfoContext(ctx, "Claim finalized", "claim_id", claim.ID, "outcome", outcome.Outcome, "trust_score", outcome.TrustScore, "total_votes", outcome.TotalVotes)
		case errors.Is(err, domain.ErrAlreadyFinalized), errors.Is(err, domain.ErrClaimNotFound):
			res.Skipped++
			slog.DebugContext(ctx, "Claim skipped", "claim_id", claim.ID, "reason", err)
		default:
			res.Failed++
			f.metrics.ClaimFailures.Inc()
			slog.ErrorContext(ctx, "Failed to finalize claim", "claim_id", claim.ID, "error", err)
		}
	}

	f.metrics.Sweeps.WithLabelValues("ran").Inc()
	return res
}

// finalizeClaim computes and writes one outcome. ErrAlreadyFinalized means
// another writer won the insert; nothing else is written in that case.
func (f *Finalizer) finalizeClaim(ctx context.Context, claim domain.Claim, now time.Time) (domain.FinalizedOutcome, error) {
	votes, err := f.store.ListVotesByClaim(ctx, claim.ID)
	if err != nil {
		return domain.FinalizedOutcome{}, err
	}
	trueWeight, falseWeight, err := tally(ctx, f.engine, votes)
	if err != nil {
		return domain.FinalizedOutcome{}, err
	}

	outcome := domain.FinalizedOutcome{
		ClaimID:     claim.ID,
		TrustScore:  score(trueWeight, falseWeight),
		TotalVotes:  len(votes),
		Outcome:     trueWeight >= falseWeight,
		FinalizedAt: now,
	}
	entry, err := domain.NewAuditEntry(domain.AuditFinalize, nil, claim.ID.String(), outcome, now)
	if err != nil {
		return domain.FinalizedOutcome{}, err
	}

	affected := make([]domain.IdentityID, 0, len(votes)+1)
	for _, v := range votes {
		affected = append(affected, v.VoterID)
	}
	affected = append(affected, claim.CreatorID)

	err = f.store.WithTx(ctx, func(q domain.Queries) error {
		inserted, err := q.InsertOutcome(ctx, outcome)
		if err != nil {
			return err
		}
		if !inserted {
			return domain.ErrAlreadyFinalized
		}
		if err := f.engine.Invalidate(ctx, q, affected...); err != nil {
			return err
		}
		return q.InsertAudit(ctx, entry)
	})
	if err != nil {
		return domain.FinalizedOutcome{}, err
	}
	return outcome, nil
}
