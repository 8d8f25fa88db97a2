package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/rumorpulse/internal/domain"
)

// FaultHook lets tests fail individual operations. op is the method name,
// key identifies the row (claim ID, identity ID) where one applies.
type FaultHook func(op, key string) error

// Store is safe for concurrent use. A transaction holds the lock for its
// whole duration, so readers never observe partial writes.
type Store struct {
	mu    sync.Mutex
	st    *state
	fault FaultHook
}

var _ domain.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{st: newState()}
}

// SetFaultHook installs hook, or removes it when hook is nil.
func (s *Store) SetFaultHook(hook FaultHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = hook
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) WithTx(ctx context.Context, fn func(q domain.Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&queries{st: s.st, fault: s.fault}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func locked[T any](s *Store, fn func(q *queries) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&queries{st: s.st, fault: s.fault})
}

func lockedVoid(s *Store, fn func(q *queries) error) error {
	_, err := locked(s, func(q *queries) (struct{}, error) { return struct{}{}, fn(q) })
	return err
}

func (s *Store) InsertIdentity(ctx context.Context, identity domain.Identity) error {
	return lockedVoid(s, func(q *queries) error { return q.InsertIdentity(ctx, identity) })
}

func (s *Store) GetIdentity(ctx context.Context, id domain.IdentityID) (*domain.Identity, error) {
	return locked(s, func(q *queries) (*domain.Identity, error) { return q.GetIdentity(ctx, id) })
}

func (s *Store) InsertClaim(ctx context.Context, claim domain.Claim) error {
	return lockedVoid(s, func(q *queries) error { return q.InsertClaim(ctx, claim) })
}

func (s *Store) GetClaim(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	return locked(s, func(q *queries) (*domain.Claim, error) { return q.GetClaim(ctx, id) })
}

func (s *Store) ListClaims(ctx context.Context, limit int) ([]domain.Claim, error) {
	return locked(s, func(q *queries) ([]domain.Claim, error) { return q.ListClaims(ctx, limit) })
}

func (s *Store) ListDueClaims(ctx context.Context, now time.Time, limit int) ([]domain.Claim, error) {
	return locked(s, func(q *queries) ([]domain.Claim, error) { return q.ListDueClaims(ctx, now, limit) })
}

func (s *Store) GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	return locked(s, func(q *queries) (*domain.Claim, error) { return q.GetClaimForUpdate(ctx, id) })
}

func (s *Store) DeleteClaim(ctx context.Context, id uuid.UUID) error {
	return lockedVoid(s, func(q *queries) error { return q.DeleteClaim(ctx, id) })
}

func (s *Store) InsertVote(ctx context.Context, v domain.Vote) error {
	return lockedVoid(s, func(q *queries) error { return q.InsertVote(ctx, v) })
}

func (s *Store) ListVotesByClaim(ctx context.Context, claimID uuid.UUID) ([]domain.Vote, error) {
	return locked(s, func(q *queries) ([]domain.Vote, error) { return q.ListVotesByClaim(ctx, claimID) })
}

func (s *Store) HasVoted(ctx context.Context, claimID uuid.UUID, voter domain.IdentityID) (bool, error) {
	return locked(s, func(q *queries) (bool, error) { return q.HasVoted(ctx, claimID, voter) })
}

func (s *Store) ListScoredVotes(ctx context.Context, voter domain.IdentityID) ([]domain.ScoredVote, error) {
	return locked(s, func(q *queries) ([]domain.ScoredVote, error) { return q.ListScoredVotes(ctx, voter) })
}

func (s *Store) InsertOutcome(ctx context.Context, o domain.FinalizedOutcome) (bool, error) {
	return locked(s, func(q *queries) (bool, error) { return q.InsertOutcome(ctx, o) })
}

func (s *Store) GetOutcome(ctx context.Context, claimID uuid.UUID) (*domain.FinalizedOutcome, error) {
	return locked(s, func(q *queries) (*domain.FinalizedOutcome, error) { return q.GetOutcome(ctx, claimID) })
}

func (s *Store) GetCachedReputation(ctx context.Context, id domain.IdentityID) (*domain.CachedReputation, error) {
	return locked(s, func(q *queries) (*domain.CachedReputation, error) { return q.GetCachedReputation(ctx, id) })
}

func (s *Store) UpsertCachedReputation(ctx context.Context, entry domain.CachedReputation) error {
	return lockedVoid(s, func(q *queries) error { return q.UpsertCachedReputation(ctx, entry) })
}

func (s *Store) InvalidateReputation(ctx context.Context, ids ...domain.IdentityID) error {
	return lockedVoid(s, func(q *queries) error { return q.InvalidateReputation(ctx, ids...) })
}

func (s *Store) InsertPenalty(ctx context.Context, p domain.ReputationPenalty) error {
	return lockedVoid(s, func(q *queries) error { return q.InsertPenalty(ctx, p) })
}

func (s *Store) SumPenalties(ctx context.Context, id domain.IdentityID) (float64, error) {
	return locked(s, func(q *queries) (float64, error) { return q.SumPenalties(ctx, id) })
}

func (s *Store) ListPenalties(ctx context.Context, id domain.IdentityID) ([]domain.ReputationPenalty, error) {
	return locked(s, func(q *queries) ([]domain.ReputationPenalty, error) { return q.ListPenalties(ctx, id) })
}

func (s *Store) InsertAudit(ctx context.Context, entry domain.AuditEntry) error {
	return lockedVoid(s, func(q *queries) error { return q.InsertAudit(ctx, entry) })
}

func (s *Store) ListAudit(ctx context.Context, limit int, before time.Time) ([]domain.AuditEntry, error) {
	return locked(s, func(q *queries) ([]domain.AuditEntry, error) { return q.ListAudit(ctx, limit, before) })
}
