package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FinalizedOutcome is written exactly once per claim and never updated.
type FinalizedOutcome struct {
	ClaimID     uuid.UUID
	TrustScore  float64
	TotalVotes  int
	Outcome     bool
	FinalizedAt time.Time
}

// TrustScore is the read model returned for a claim.
type TrustScore struct {
	ClaimID   uuid.UUID
	Score     float64
	VoteCount int
	Finalized bool
	Outcome   *bool
}

type OutcomeRepository interface {
	// InsertOutcome is idempotent on ClaimID: it returns false without error
	// when an outcome already exists.
	InsertOutcome(ctx context.Context, o FinalizedOutcome) (bool, error)
	// GetOutcome returns nil without error when the claim is not finalized.
	GetOutcome(ctx context.Context, claimID uuid.UUID) (*FinalizedOutcome, error)
}
