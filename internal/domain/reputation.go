package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CachedReputation is a disposable memo of a computed reputation.
type CachedReputation struct {
	IdentityID IdentityID
	Reputation float64
	ComputedAt time.Time
}

// ReputationPenalty is an append-only, signed adjustment added to every
// recomputation of the identity's reputation.
type ReputationPenalty struct {
	ID         uuid.UUID
	IdentityID IdentityID
	Amount     float64
	Reason     string
	ClaimID    uuid.UUID
	CreatedAt  time.Time
}

const PenaltyReasonDeletedFalseClaim = "deleted_false_claim"

type ReputationCacheRepository interface {
	// GetCachedReputation returns nil without error when nothing is cached.
	GetCachedReputation(ctx context.Context, id IdentityID) (*CachedReputation, error)
	UpsertCachedReputation(ctx context.Context, entry CachedReputation) error
	InvalidateReputation(ctx context.Context, ids ...IdentityID) error
}

type PenaltyRepository interface {
	InsertPenalty(ctx context.Context, p ReputationPenalty) error
	SumPenalties(ctx context.Context, id IdentityID) (float64, error)
	ListPenalties(ctx context.Context, id IdentityID) ([]ReputationPenalty, error)
}

// ReputationSource is everything a reputation recomputation reads.
type ReputationSource interface {
	ListScoredVotes(ctx context.Context, voter IdentityID) ([]ScoredVote, error)
	SumPenalties(ctx context.Context, id IdentityID) (float64, error)
}
