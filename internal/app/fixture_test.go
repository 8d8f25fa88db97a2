package app

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/rumorpulse/internal/adapter/memory"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/crypto"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/platform/crypto/cryptotest"
	"github.com/pscheid92/rumorpulse/internal/reputation"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

const claimContent = "The dining hall is switching to a four-day week"

type fixture struct {
	store     *memory.Store
	clock     *clockwork.FakeClock
	metrics   *metrics.Set
	engine    *reputation.Engine
	svc       *Service
	finalizer *Finalizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.NewStore(),
		clock:   clockwork.NewFakeClockAt(t0),
		metrics: metrics.NewSet(prometheus.NewRegistry()),
	}
	f.engine = reputation.NewEngine(f.store, f.clock, 5*time.Minute, f.metrics.Reputation)
	f.svc = NewService(f.store, f.engine, crypto.NewEd25519Verifier(), f.clock, ClaimLimits{MinDuration: time.Minute, MaxDuration: 720 * time.Hour}, f.metrics)
	f.finalizer = NewFinalizer(f.store, f.engine, f.clock, time.Minute, 100, nil, f.metrics.Finalizer)
	return f
}

func (f *fixture) register(t *testing.T) *cryptotest.Signer {
	t.Helper()
	s := cryptotest.NewSigner(t)
	_, err := f.svc.RegisterIdentity(context.Background(), s.ID.String(), s.Sign(domain.RegisterMessage(s.ID)))
	require.NoError(t, err)
	return s
}

func (f *fixture) claim(t *testing.T, creator *cryptotest.Signer, d time.Duration) *domain.Claim {
	t.Helper()
	deadline := f.clock.Now().Add(d)
	c, err := f.svc.SubmitClaim(context.Background(), SubmitClaimInput{
		CreatorID: creator.ID,
		Content:   claimContent,
		Category:  string(domain.CategoryCampus),
		Deadline:  deadline,
		Signature: creator.Sign(domain.ClaimMessage(claimContent, domain.CategoryCampus, deadline)),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) vote(voter *cryptotest.Signer, claim *domain.Claim, value bool) error {
	_, err := f.svc.SubmitVote(context.Background(), claim.ID, voter.ID, value, voter.Sign(domain.VoteMessage(claim.ID, value)))
	return err
}

func (f *fixture) mustVote(t *testing.T, voter *cryptotest.Signer, claim *domain.Claim, value bool) {
	t.Helper()
	require.NoError(t, f.vote(voter, claim, value))
}

func (f *fixture) delete(creator *cryptotest.Signer, claim *domain.Claim) (int, error) {
	return f.svc.DeleteClaim(context.Background(), claim.ID, creator.ID, creator.Sign(domain.DeleteMessage(claim.ID)))
}

// seedReputation stores a fresh cached reputation for id.
func (f *fixture) seedReputation(t *testing.T, id domain.IdentityID, rep float64) {
	t.Helper()
	require.NoError(t, f.store.UpsertCachedReputation(context.Background(), domain.CachedReputation{
		IdentityID: id,
		Reputation: rep,
		ComputedAt: f.clock.Now(),
	}))
}

// finalize advances past the claim's deadline and runs one sweep.
func (f *fixture) finalize(t *testing.T, claim *domain.Claim) SweepResult {
	t.Helper()
	if d := claim.Deadline.Sub(f.clock.Now()); d > 0 {
		f.clock.Advance(d)
	}
	res := f.finalizer.FinalizeDue(context.Background())
	require.NoError(t, res.Err)
	return res
}

func (f *fixture) outcome(t *testing.T, claim *domain.Claim) *domain.FinalizedOutcome {
	t.Helper()
	o, err := f.store.GetOutcome(context.Background(), claim.ID)
	require.NoError(t, err)
	return o
}

func (f *fixture) reputation(t *testing.T, id domain.IdentityID) float64 {
	t.Helper()
	rep, err := f.svc.Reputation(context.Background(), id)
	require.NoError(t, err)
	return rep
}
