package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pscheid92/rumorpulse/internal/domain"
)

type queries struct {
	db dbtx
}

// limitArg turns a non-positive limit into NULL, which Postgres reads as no limit.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func (q *queries) InsertIdentity(ctx context.Context, identity domain.Identity) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO identities (id, created_at) VALUES ($1, $2)`,
		identity.ID.String(), identity.CreatedAt)
	if pgCode(err) == uniqueViolation {
		return domain.ErrIdentityExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert identity: %w", classify(err))
	}
	return nil
}

func (q *queries) GetIdentity(ctx context.Context, id domain.IdentityID) (*domain.Identity, error) {
	var identity domain.Identity
	var raw string
	err := q.db.QueryRow(ctx,
		`SELECT id, created_at FROM identities WHERE id = $1`,
		id.String()).Scan(&raw, &identity.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", classify(err))
	}
	identity.ID = domain.IdentityID(raw)
	identity.CreatedAt = identity.CreatedAt.UTC()
	return &identity, nil
}

const claimColumns = `c.id, c.content, c.category, c.creator_id, c.created_at, c.deadline`

func scanClaim(row pgx.CollectableRow) (domain.Claim, error) {
	var (
		c        domain.Claim
		category string
		creator  string
	)
	if err := row.Scan(&c.ID, &c.Content, &category, &creator, &c.CreatedAt, &c.Deadline); err != nil {
		return domain.Claim{}, err
	}
	c.Category = domain.Category(category)
	c.CreatorID = domain.IdentityID(creator)
	c.CreatedAt = c.CreatedAt.UTC()
	c.Deadline = c.Deadline.UTC()
	return c, nil
}

func (q *queries) InsertClaim(ctx context.Context, claim domain.Claim) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO claims (id, content, category, creator_id, created_at, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		claim.ID, claim.Content, string(claim.Category), claim.CreatorID.String(), claim.CreatedAt, claim.Deadline)
	if pgCode(err) == foreignKeyViolation {
		return domain.ErrIdentityNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert claim: %w", classify(err))
	}
	return nil
}

func (q *queries) GetClaim(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	rows, err := q.db.Query(ctx, `SELECT `+claimColumns+` FROM claims c WHERE c.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", classify(err))
	}
	claim, err := pgx.CollectExactlyOneRow(rows, scanClaim)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", classify(err))
	}
	return &claim, nil
}

// GetClaimForUpdate blocks a concurrent outcome insert for the claim, whose
// foreign key check needs a share lock on the same row.
func (q *queries) GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	rows, err := q.db.Query(ctx, `SELECT `+claimColumns+` FROM claims c WHERE c.id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock claim: %w", classify(err))
	}
	claim, err := pgx.CollectExactlyOneRow(rows, scanClaim)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock claim: %w", classify(err))
	}
	return &claim, nil
}

func (q *queries) ListClaims(ctx context.Context, limit int) ([]domain.Claim, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+claimColumns+` FROM claims c ORDER BY c.created_at DESC, c.id LIMIT $1`,
		limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", classify(err))
	}
	claims, err := pgx.CollectRows(rows, scanClaim)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", classify(err))
	}
	return claims, nil
}

func (q *queries) ListDueClaims(ctx context.Context, now time.Time, limit int) ([]domain.Claim, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+claimColumns+` FROM claims c
		 WHERE c.deadline <= $1
		   AND NOT EXISTS (SELECT 1 FROM finalized_outcomes o WHERE o.claim_id = c.id)
		 ORDER BY c.deadline, c.id
		 LIMIT $2`,
		now, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list due claims: %w", classify(err))
	}
	claims, err := pgx.CollectRows(rows, scanClaim)
	if err != nil {
		return nil, fmt.Errorf("failed to list due claims: %w", classify(err))
	}
	return claims, nil
}

func (q *queries) DeleteClaim(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM claims WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete claim: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClaimNotFound
	}
	return nil
}

// InsertVote inserts only while the claim's deadline is after voted_at, so
// the deadline check and the insert are one statement.
func (q *queries) InsertVote(ctx context.Context, v domain.Vote) error {
	tag, err := q.db.Exec(ctx,
		`INSERT INTO votes (claim_id, voter_id, value, voted_at)
		 SELECT c.id, $2, $3, $4 FROM claims c
		 WHERE c.id = $1 AND c.deadline > $4`,
		v.ClaimID, v.VoterID.String(), v.Value, v.VotedAt)
	switch pgCode(err) {
	case uniqueViolation:
		return domain.ErrDuplicateVote
	case foreignKeyViolation:
		return domain.ErrIdentityNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", classify(err))
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := q.GetClaim(ctx, v.ClaimID); err != nil {
		return err
	}
	return domain.ErrVotingClosed
}

func scanVote(row pgx.CollectableRow) (domain.Vote, error) {
	var (
		v     domain.Vote
		voter string
	)
	if err := row.Scan(&v.ClaimID, &voter, &v.Value, &v.VotedAt); err != nil {
		return domain.Vote{}, err
	}
	v.VoterID = domain.IdentityID(voter)
	v.VotedAt = v.VotedAt.UTC()
	return v, nil
}

func (q *queries) ListVotesByClaim(ctx context.Context, claimID uuid.UUID) ([]domain.Vote, error) {
	rows, err := q.db.Query(ctx,
		`SELECT claim_id, voter_id, value, voted_at FROM votes
		 WHERE claim_id = $1 ORDER BY voted_at, voter_id`,
		claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", classify(err))
	}
	votes, err := pgx.CollectRows(rows, scanVote)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", classify(err))
	}
	return votes, nil
}

func (q *queries) HasVoted(ctx context.Context, claimID uuid.UUID, voter domain.IdentityID) (bool, error) {
	var voted bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM votes WHERE claim_id = $1 AND voter_id = $2)`,
		claimID, voter.String()).Scan(&voted)
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", classify(err))
	}
	return voted, nil
}

func (q *queries) ListScoredVotes(ctx context.Context, voter domain.IdentityID) ([]domain.ScoredVote, error) {
	rows, err := q.db.Query(ctx,
		`SELECT v.claim_id, v.voter_id, v.value, v.voted_at, o.outcome
		 FROM votes v
		 JOIN finalized_outcomes o ON o.claim_id = v.claim_id
		 WHERE v.voter_id = $1
		 ORDER BY v.voted_at, v.claim_id`,
		voter.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list scored votes: %w", classify(err))
	}
	scored, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ScoredVote, error) {
		var (
			sv   domain.ScoredVote
			name string
		)
		if err := row.Scan(&sv.ClaimID, &name, &sv.Value, &sv.VotedAt, &sv.Outcome); err != nil {
			return domain.ScoredVote{}, err
		}
		sv.VoterID = domain.IdentityID(name)
		sv.VotedAt = sv.VotedAt.UTC()
		return sv, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scored votes: %w", classify(err))
	}
	return scored, nil
}

func (q *queries) InsertOutcome(ctx context.Context, o domain.FinalizedOutcome) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`INSERT INTO finalized_outcomes (claim_id, trust_score, total_votes, outcome, finalized_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (claim_id) DO NOTHING`,
		o.ClaimID, o.TrustScore, o.TotalVotes, o.Outcome, o.FinalizedAt)
	if pgCode(err) == foreignKeyViolation {
		return false, domain.ErrClaimNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert outcome: %w", classify(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (q *queries) GetOutcome(ctx context.Context, claimID uuid.UUID) (*domain.FinalizedOutcome, error) {
	o := domain.FinalizedOutcome{ClaimID: claimID}
	err := q.db.QueryRow(ctx,
		`SELECT trust_score, total_votes, outcome, finalized_at
		 FROM finalized_outcomes WHERE claim_id = $1`,
		claimID).Scan(&o.TrustScore, &o.TotalVotes, &o.Outcome, &o.FinalizedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome: %w", classify(err))
	}
	o.FinalizedAt = o.FinalizedAt.UTC()
	return &o, nil
}

func (q *queries) GetCachedReputation(ctx context.Context, id domain.IdentityID) (*domain.CachedReputation, error) {
	entry := domain.CachedReputation{IdentityID: id}
	err := q.db.QueryRow(ctx,
		`SELECT reputation, computed_at FROM reputation_cache WHERE identity_id = $1`,
		id.String()).Scan(&entry.Reputation, &entry.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached reputation: %w", classify(err))
	}
	entry.ComputedAt = entry.ComputedAt.UTC()
	return &entry, nil
}

func (q *queries) UpsertCachedReputation(ctx context.Context, entry domain.CachedReputation) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO reputation_cache (identity_id, reputation, computed_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (identity_id) DO UPDATE
		 SET reputation = EXCLUDED.reputation, computed_at = EXCLUDED.computed_at`,
		entry.IdentityID.String(), entry.Reputation, entry.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert cached reputation: %w", classify(err))
	}
	return nil
}

func (q *queries) InvalidateReputation(ctx context.Context, ids ...domain.IdentityID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	if _, err := q.db.Exec(ctx, `DELETE FROM reputation_cache WHERE identity_id = ANY($1)`, keys); err != nil {
		return fmt.Errorf("failed to invalidate reputation cache: %w", classify(err))
	}
	return nil
}

func (q *queries) InsertPenalty(ctx context.Context, p domain.ReputationPenalty) error {
	claimID := uuid.NullUUID{UUID: p.ClaimID, Valid: p.ClaimID != uuid.Nil}
	_, err := q.db.Exec(ctx,
		`INSERT INTO reputation_penalties (id, identity_id, amount, reason, claim_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.IdentityID.String(), p.Amount, p.Reason, claimID, p.CreatedAt)
	if pgCode(err) == foreignKeyViolation {
		return domain.ErrIdentityNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert penalty: %w", classify(err))
	}
	return nil
}

func (q *queries) SumPenalties(ctx context.Context, id domain.IdentityID) (float64, error) {
	var sum float64
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::float8 FROM reputation_penalties WHERE identity_id = $1`,
		id.String()).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum penalties: %w", classify(err))
	}
	return sum, nil
}

func (q *queries) ListPenalties(ctx context.Context, id domain.IdentityID) ([]domain.ReputationPenalty, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, identity_id, amount, reason, claim_id, created_at
		 FROM reputation_penalties WHERE identity_id = $1
		 ORDER BY created_at, id`,
		id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list penalties: %w", classify(err))
	}
	penalties, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ReputationPenalty, error) {
		var (
			p        domain.ReputationPenalty
			identity string
			claimID  uuid.NullUUID
		)
		if err := row.Scan(&p.ID, &identity, &p.Amount, &p.Reason, &claimID, &p.CreatedAt); err != nil {
			return domain.ReputationPenalty{}, err
		}
		p.IdentityID = domain.IdentityID(identity)
		p.ClaimID = claimID.UUID
		p.CreatedAt = p.CreatedAt.UTC()
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list penalties: %w", classify(err))
	}
	return penalties, nil
}

func (q *queries) InsertAudit(ctx context.Context, entry domain.AuditEntry) error {
	var actor *string
	if entry.ActorID != nil {
		s := entry.ActorID.String()
		actor = &s
	}
	_, err := q.db.Exec(ctx,
		`INSERT INTO audit_log (id, action, actor_id, target_id, content_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, string(entry.Action), actor, entry.TargetID, entry.ContentHash, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", classify(err))
	}
	return nil
}

func (q *queries) ListAudit(ctx context.Context, limit int, before time.Time) ([]domain.AuditEntry, error) {
	var cursor *time.Time
	if !before.IsZero() {
		cursor = &before
	}
	rows, err := q.db.Query(ctx,
		`SELECT id, action, actor_id, target_id, content_hash, created_at
		 FROM audit_log
		 WHERE $2::timestamptz IS NULL OR created_at < $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limitArg(limit), cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", classify(err))
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditEntry, error) {
		var (
			e      domain.AuditEntry
			action string
			actor  *string
		)
		if err := row.Scan(&e.ID, &action, &actor, &e.TargetID, &e.ContentHash, &e.CreatedAt); err != nil {
			return domain.AuditEntry{}, err
		}
		e.Action = domain.AuditAction(action)
		if actor != nil {
			e.ActorID = domain.ActorRef(domain.IdentityID(*actor))
		}
		e.CreatedAt = e.CreatedAt.UTC()
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", classify(err))
	}
	return entries, nil
}
