package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/rumorpulse/internal/domain"
)

// queries operates on state without locking; the caller holds Store.mu.
type queries struct {
	st    *state
	fault FaultHook
}

func (q *queries) check(op, key string) error {
	if q.fault == nil {
		return nil
	}
	return q.fault(op, key)
}

func (q *queries) InsertIdentity(_ context.Context, identity domain.Identity) error {
	if err := q.check("InsertIdentity", identity.ID.String()); err != nil {
		return err
	}
	if _, exists := q.st.identities[identity.ID]; exists {
		return domain.ErrIdentityExists
	}
	q.st.identities[identity.ID] = identity
	return nil
}

func (q *queries) GetIdentity(_ context.Context, id domain.IdentityID) (*domain.Identity, error) {
	if err := q.check("GetIdentity", id.String()); err != nil {
		return nil, err
	}
	identity, ok := q.st.identities[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return &identity, nil
}

func (q *queries) InsertClaim(_ context.Context, claim domain.Claim) error {
	if err := q.check("InsertClaim", claim.ID.String()); err != nil {
		return err
	}
	if _, ok := q.st.identities[claim.CreatorID]; !ok {
		return domain.ErrIdentityNotFound
	}
	q.st.claims[claim.ID] = claim
	return nil
}

func (q *queries) GetClaim(_ context.Context, id uuid.UUID) (*domain.Claim, error) {
	if err := q.check("GetClaim", id.String()); err != nil {
		return nil, err
	}
	claim, ok := q.st.claims[id]
	if !ok {
		return nil, domain.ErrClaimNotFound
	}
	return &claim, nil
}

// GetClaimForUpdate needs no row lock; Store.mu serializes transactions.
func (q *queries) GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	if err := q.check("GetClaimForUpdate", id.String()); err != nil {
		return nil, err
	}
	return q.GetClaim(ctx, id)
}

func (q *queries) ListClaims(_ context.Context, limit int) ([]domain.Claim, error) {
	if err := q.check("ListClaims", ""); err != nil {
		return nil, err
	}
	claims := make([]domain.Claim, 0, len(q.st.claims))
	for _, c := range q.st.claims {
		claims = append(claims, c)
	}
	slices.SortFunc(claims, func(a, b domain.Claim) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return truncate(claims, limit), nil
}

func (q *queries) ListDueClaims(_ context.Context, now time.Time, limit int) ([]domain.Claim, error) {
	if err := q.check("ListDueClaims", ""); err != nil {
		return nil, err
	}
	var due []domain.Claim
	for id, c := range q.st.claims {
		if _, finalized := q.st.outcomes[id]; finalized {
			continue
		}
		if !c.Deadline.After(now) {
			due = append(due, c)
		}
	}
	slices.SortFunc(due, func(a, b domain.Claim) int {
		if c := a.Deadline.Compare(b.Deadline); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return truncate(due, limit), nil
}

func (q *queries) DeleteClaim(_ context.Context, id uuid.UUID) error {
	if err := q.check("DeleteClaim", id.String()); err != nil {
		return err
	}
	if _, ok := q.st.claims[id]; !ok {
		return domain.ErrClaimNotFound
	}
	delete(q.st.claims, id)
	delete(q.st.votes, id)
	delete(q.st.outcomes, id)
	return nil
}

func (q *queries) InsertVote(_ context.Context, v domain.Vote) error {
	if err := q.check("InsertVote", v.ClaimID.String()); err != nil {
		return err
	}
	claim, ok := q.st.claims[v.ClaimID]
	if !ok {
		return domain.ErrClaimNotFound
	}
	if _, ok := q.st.identities[v.VoterID]; !ok {
		return domain.ErrIdentityNotFound
	}
	if !claim.Open(v.VotedAt) {
		return domain.ErrVotingClosed
	}

	byVoter := q.st.votes[v.ClaimID]
	if byVoter == nil {
		byVoter = make(map[domain.IdentityID]domain.Vote)
		q.st.votes[v.ClaimID] = byVoter
	}
	if _, exists := byVoter[v.VoterID]; exists {
		return domain.ErrDuplicateVote
	}
	byVoter[v.VoterID] = v
	return nil
}

func (q *queries) ListVotesByClaim(_ context.Context, claimID uuid.UUID) ([]domain.Vote, error) {
	if err := q.check("ListVotesByClaim", claimID.String()); err != nil {
		return nil, err
	}
	votes := make([]domain.Vote, 0, len(q.st.votes[claimID]))
	for _, v := range q.st.votes[claimID] {
		votes = append(votes, v)
	}
	slices.SortFunc(votes, compareVotes)
	return votes, nil
}

func (q *queries) HasVoted(_ context.Context, claimID uuid.UUID, voter domain.IdentityID) (bool, error) {
	if err := q.check("HasVoted", claimID.String()); err != nil {
		return false, err
	}
	_, ok := q.st.votes[claimID][voter]
	return ok, nil
}

func (q *queries) ListScoredVotes(_ context.Context, voter domain.IdentityID) ([]domain.ScoredVote, error) {
	if err := q.check("ListScoredVotes", voter.String()); err != nil {
		return nil, err
	}
	var scored []domain.ScoredVote
	for claimID, outcome := range q.st.outcomes {
		if v, ok := q.st.votes[claimID][voter]; ok {
			scored = append(scored, domain.ScoredVote{Vote: v, Outcome: outcome.Outcome})
		}
	}
	slices.SortFunc(scored, func(a, b domain.ScoredVote) int {
		return compareVotes(a.Vote, b.Vote)
	})
	return scored, nil
}

func (q *queries) InsertOutcome(_ context.Context, o domain.FinalizedOutcome) (bool, error) {
	if err := q.check("InsertOutcome", o.ClaimID.String()); err != nil {
		return false, err
	}
	if _, ok := q.st.claims[o.ClaimID]; !ok {
		return false, domain.ErrClaimNotFound
	}
	if _, exists := q.st.outcomes[o.ClaimID]; exists {
		return false, nil
	}
	q.st.outcomes[o.ClaimID] = o
	return true, nil
}

func (q *queries) GetOutcome(_ context.Context, claimID uuid.UUID) (*domain.FinalizedOutcome, error) {
	if err := q.check("GetOutcome", claimID.String()); err != nil {
		return nil, err
	}
	o, ok := q.st.outcomes[claimID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (q *queries) GetCachedReputation(_ context.Context, id domain.IdentityID) (*domain.CachedReputation, error) {
	if err := q.check("GetCachedReputation", id.String()); err != nil {
		return nil, err
	}
	entry, ok := q.st.cache[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (q *queries) UpsertCachedReputation(_ context.Context, entry domain.CachedReputation) error {
	if err := q.check("UpsertCachedReputation", entry.IdentityID.String()); err != nil {
		return err
	}
	q.st.cache[entry.IdentityID] = entry
	return nil
}

func (q *queries) InvalidateReputation(_ context.Context, ids ...domain.IdentityID) error {
	for _, id := range ids {
		if err := q.check("InvalidateReputation", id.String()); err != nil {
			return err
		}
		delete(q.st.cache, id)
	}
	return nil
}

func (q *queries) InsertPenalty(_ context.Context, p domain.ReputationPenalty) error {
	if err := q.check("InsertPenalty", p.IdentityID.String()); err != nil {
		return err
	}
	q.st.penalties = append(q.st.penalties, p)
	return nil
}

func (q *queries) SumPenalties(_ context.Context, id domain.IdentityID) (float64, error) {
	if err := q.check("SumPenalties", id.String()); err != nil {
		return 0, err
	}
	var sum float64
	for _, p := range q.st.penalties {
		if p.IdentityID == id {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (q *queries) ListPenalties(_ context.Context, id domain.IdentityID) ([]domain.ReputationPenalty, error) {
	if err := q.check("ListPenalties", id.String()); err != nil {
		return nil, err
	}
	var out []domain.ReputationPenalty
	for _, p := range q.st.penalties {
		if p.IdentityID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (q *queries) InsertAudit(_ context.Context, entry domain.AuditEntry) error {
	if err := q.check("InsertAudit", entry.TargetID); err != nil {
		return err
	}
	q.st.audit = append(q.st.audit, entry)
	return nil
}

func (q *queries) ListAudit(_ context.Context, limit int, before time.Time) ([]domain.AuditEntry, error) {
	if err := q.check("ListAudit", ""); err != nil {
		return nil, err
	}
	var out []domain.AuditEntry
	for i := len(q.st.audit) - 1; i >= 0; i-- {
		e := q.st.audit[i]
		if !before.IsZero() && !e.CreatedAt.Before(before) {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b domain.AuditEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return truncate(out, limit), nil
}

func compareVotes(a, b domain.Vote) int {
	if c := a.VotedAt.Compare(b.VotedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ClaimID.String(), b.ClaimID.String()); c != 0 {
		return c
	}
	return cmp.Compare(a.VoterID, b.VoterID)
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
