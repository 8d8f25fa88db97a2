package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustScore_NoVotesIsNeutral(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t)
	claim := f.claim(t, creator, time.Hour)

	ts, err := f.svc.TrustScore(context.Background(), claim.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, ts.Score)
	assert.Zero(t, ts.VoteCount)
	assert.False(t, ts.Finalized)
	assert.Nil(t, ts.Outcome)
}

func TestTrustScore_RequiresVote(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t)
	voter := f.register(t)
	lurker := f.register(t)
	claim := f.claim(t, creator, time.Hour)
	f.mustVote(t, voter, claim, true)

	_, err := f.svc.TrustScore(context.Background(), claim.ID, &lurker.ID)
	assert.ErrorIs(t, err, domain.ErrVoteRequired)

	ts, err := f.svc.TrustScore(context.Background(), claim.ID, &voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, ts.Score)
	assert.Equal(t, 1, ts.VoteCount)
}

func TestTrustScore_WeightsByReputation(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t)
	a := f.register(t)
	b := f.register(t)
	claim := f.claim(t, creator, time.Hour)

	f.mustVote(t, a, claim, false)
	f.mustVote(t, b, claim, true)
	f.seedReputation(t, b.ID, 40)

	ts, err := f.svc.TrustScore(context.Background(), claim.ID, &a.ID)
	require.NoError(t, err)
	assert.InDelta(t, 97.6, ts.Score, 1e-9)
	assert.Equal(t, 2, ts.VoteCount)
}

func TestTrustScore_NegativeReputationWeighsOne(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t)
	a := f.register(t)
	b := f.register(t)
	claim := f.claim(t, creator, time.Hour)

	f.mustVote(t, a, claim, true)
	f.mustVote(t, b, claim, false)
	f.seedReputation(t, a.ID, -5)
	f.seedReputation(t, b.ID, 0)

	ts, err := f.svc.TrustScore(context.Background(), claim.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, ts.Score)
}

func TestTrustScore_FinalizedIsImmutable(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t)
	a := f.register(t)
	b := f.register(t)
	lurker := f.register(t)
	claim := f.claim(t, creator, time.Hour)
	f.mustVote(t, a, claim, true)
	f.mustVote(t, b, claim, false)

	f.clock.Advance(time.Hour)
	f.seedReputation(t, a.ID, 3)
	f.finalize(t, claim)

	want := domain.TrustScore{ClaimID: claim.ID, Score: 75, VoteCount: 2, Finalized: true}
	ts, err := f.svc.TrustScore(context.Background(), claim.ID, &lurker.ID)
	require.NoError(t, err)
	require.NotNil(t, ts.Outcome)
	assert.True(t, *ts.Outcome)
	ts.Outcome = nil
	assert.Equal(t, want, ts)

	// Later reputation changes never move a finalized score.
	f.seedReputation(t, b.ID, 90)
	ts, err = f.svc.TrustScore(context.Background(), claim.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 75.0, ts.Score)
}

func TestTrustScore_UnknownClaim(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.TrustScore(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, domain.ErrClaimNotFound)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 50.0, score(0, 0))
	assert.InDelta(t, 97.6, score(40, 1), 1e-9)
	assert.InDelta(t, 2.4, score(1, 40), 1e-9)
	assert.Equal(t, 100.0, score(3, 0))
	assert.Equal(t, 0.0, score(0, 2))
}
