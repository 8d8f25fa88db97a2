package app

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/reputation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteClaim_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creator := f.register(t)
	other := f.register(t)
	claim := f.claim(t, creator, time.Hour)

	_, err := f.svc.DeleteClaim(ctx, uuid.New(), creator.ID, nil)
	assert.ErrorIs(t, err, domain.ErrClaimNotFound)

	_, err = f.delete(other, claim)
	assert.ErrorIs(t, err, domain.ErrNotCreator)

	_, err = f.svc.DeleteClaim(ctx, claim.ID, creator.ID, other.Sign(domain.DeleteMessage(claim.ID)))
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	_, err = f.svc.GetClaim(ctx, claim.ID)
	assert.NoError(t, err)
}

func TestDeleteClaim_OpenClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creator := f.register(t)
	a := f.register(t)
	b := f.register(t)
	claim := f.claim(t, creator, time.Hour)
	f.mustVote(t, a, claim, true)
	f.mustVote(t, b, claim, false)

	affected, err := f.delete(creator, claim)
	require.NoError(t, err)
	assert.Equal(t, 2, affected)

	_, err = f.svc.GetClaim(ctx, claim.ID)
	assert.ErrorIs(t, err, domain.ErrClaimNotFound)
	votes, err := f.store.ListVotesByClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Empty(t, votes)

	penalties, err := f.store.ListPenalties(ctx, creator.ID)
	require.NoError(t, err)
	assert.Empty(t, penalties)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Votes.ClaimsDeleted.WithLabelValues("false")))
}

func TestDeleteClaim_ErasesTransientEffects(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t)
	voter := f.register(t)

	kept := f.claim(t, creator, time.Minute)
	f.mustVote(t, voter, kept, true)
	f.finalize(t, kept)
	baseline := f.reputation(t, voter.ID)

	doomed := f.claim(t, creator, time.Minute)
	f.mustVote(t, voter, doomed, true)
	f.finalize(t, doomed)
	assert.Greater(t, f.reputation(t, voter.ID), baseline)

	affected, err := f.delete(creator, doomed)
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	cached, err := f.store.GetCachedReputation(context.Background(), voter.ID)
	require.NoError(t, err)
	assert.Nil(t, cached, "voter cache must be invalidated")

	fresh, err := f.engine.Recompute(context.Background(), f.store, voter.ID, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, f.reputation(t, voter.ID), fresh)

	// Same history without the deleted claim.
	g := newFixture(t)
	gCreator := g.register(t)
	gVoter := g.register(t)
	gKept := g.claim(t, gCreator, time.Minute)
	g.mustVote(t, gVoter, gKept, true)
	g.finalize(t, gKept)
	g.clock.Advance(f.clock.Now().Sub(g.clock.Now()))

	never, err := g.engine.Recompute(context.Background(), g.store, gVoter.ID, g.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, never, fresh)
	assert.InDelta(t, 0.1, fresh, 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Votes.ClaimsDeleted.WithLabelValues("true")))
}

func TestDeleteClaim_FalseClaimPenalizesCreator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creator := f.register(t)
	voter := f.register(t)
	claim := f.claim(t, creator, time.Minute)
	f.mustVote(t, voter, claim, false)
	f.finalize(t, claim)

	assert.Zero(t, f.reputation(t, creator.ID))

	_, err := f.delete(creator, claim)
	require.NoError(t, err)

	cached, err := f.store.GetCachedReputation(ctx, creator.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.InDelta(t, -reputation.CreatorPenalty, cached.Reputation, 1e-9)

	penalties, err := f.store.ListPenalties(ctx, creator.ID)
	require.NoError(t, err)
	require.Len(t, penalties, 1)
	assert.InDelta(t, -reputation.CreatorPenalty, penalties[0].Amount, 1e-9)
	assert.Equal(t, domain.PenaltyReasonDeletedFalseClaim, penalties[0].Reason)
	assert.Equal(t, claim.ID, penalties[0].ClaimID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reputation.PenaltiesApplied))
}

func TestDeleteClaim_PenaltySurvivesLaterFinalization(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t)
	voter := f.register(t)

	debunked := f.claim(t, creator, time.Minute)
	f.mustVote(t, voter, debunked, false)
	f.finalize(t, debunked)
	_, err := f.delete(creator, debunked)
	require.NoError(t, err)

	unrelated := f.claim(t, creator, time.Minute)
	f.finalize(t, unrelated)

	cached, err := f.store.GetCachedReputation(context.Background(), creator.ID)
	require.NoError(t, err)
	assert.Nil(t, cached, "finalization invalidates the creator cache")

	assert.True(t, f.outcome(t, unrelated).Outcome)
	assert.InDelta(t, -reputation.CreatorPenalty, f.reputation(t, creator.ID), 1e-9)

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.engine.Invalidate(context.Background(), f.store, creator.ID))
	assert.InDelta(t, -reputation.CreatorPenalty, f.reputation(t, creator.ID), 1e-9)
}

func TestDeleteClaim_TrueClaimCarriesNoPenalty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creator := f.register(t)
	voter := f.register(t)
	claim := f.claim(t, creator, time.Minute)
	f.mustVote(t, voter, claim, true)
	f.finalize(t, claim)
	assert.Zero(t, f.reputation(t, creator.ID))

	_, err := f.delete(creator, claim)
	require.NoError(t, err)

	penalties, err := f.store.ListPenalties(ctx, creator.ID)
	require.NoError(t, err)
	assert.Empty(t, penalties)
	assert.Zero(t, f.reputation(t, creator.ID))
}

func TestDeleteClaim_CachedPenaltyMatchesRecompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creator := f.register(t)
	other := f.register(t)
	voter := f.register(t)

	for range 7 {
		c := f.claim(t, other, time.Minute)
		f.mustVote(t, creator, c, true)
		f.finalize(t, c)
	}
	f.clock.Advance(36 * time.Hour)

	claim := f.claim(t, creator, time.Minute)
	f.mustVote(t, voter, claim, false)
	f.finalize(t, claim)
	before := f.reputation(t, creator.ID)
	require.Positive(t, before)

	_, err := f.delete(creator, claim)
	require.NoError(t, err)

	cached, err := f.store.GetCachedReputation(ctx, creator.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)

	fresh, err := f.engine.Recompute(ctx, f.store, creator.ID, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, fresh, cached.Reputation)
	assert.InDelta(t, before-reputation.CreatorPenalty, cached.Reputation, 0.1+1e-9)
}

func TestDeleteClaim_LocksClaimFirst(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t)
	voter := f.register(t)
	claim := f.claim(t, creator, time.Minute)
	f.mustVote(t, voter, claim, false)
	f.finalize(t, claim)

	var ops []string
	f.store.SetFaultHook(func(op, _ string) error {
		ops = append(ops, op)
		return nil
	})
	_, err := f.delete(creator, claim)
	require.NoError(t, err)
	f.store.SetFaultHook(nil)

	lock := slices.Index(ops, "GetClaimForUpdate")
	require.NotEqual(t, -1, lock)
	assert.Less(t, lock, slices.Index(ops, "GetOutcome"))
	assert.Less(t, lock, slices.Index(ops, "ListVotesByClaim"))
}

func TestDeleteClaim_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creator := f.register(t)
	voter := f.register(t)
	claim := f.claim(t, creator, time.Minute)
	f.mustVote(t, voter, claim, false)
	f.finalize(t, claim)
	f.reputation(t, voter.ID)

	f.store.SetFaultHook(func(op, _ string) error {
		if op == "InsertPenalty" {
			return domain.ErrStoreUnavailable
		}
		return nil
	})

	_, err := f.delete(creator, claim)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	f.store.SetFaultHook(nil)

	_, err = f.svc.GetClaim(ctx, claim.ID)
	assert.NoError(t, err)
	assert.NotNil(t, f.outcome(t, claim))
	votes, err := f.store.ListVotesByClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
	cached, err := f.store.GetCachedReputation(ctx, voter.ID)
	require.NoError(t, err)
	assert.NotNil(t, cached, "invalidation is rolled back with the rest")

	entries, err := f.store.ListAudit(ctx, 100, time.Time{})
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, domain.AuditDelete, e.Action)
	}
}
