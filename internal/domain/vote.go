package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Vote is immutable and unique per (claim, voter).
type Vote struct {
	ClaimID uuid.UUID
	VoterID IdentityID
	Value   bool
	VotedAt time.Time
}

// ScoredVote is a vote on a finalized claim joined with that claim's outcome.
type ScoredVote struct {
	Vote
	Outcome bool
}

// Correct reports whether the vote matched the finalized outcome.
func (v ScoredVote) Correct() bool {
	return v.Value == v.Outcome
}

// VoteRateLimiter caps how fast a single identity may vote.
type VoteRateLimiter interface {
	AllowVote(ctx context.Context, voter IdentityID) (bool, error)
}

type VoteRepository interface {
	// InsertVote stores v only while the claim's deadline is after v.VotedAt.
	// Returns ErrClaimNotFound, ErrVotingClosed or ErrDuplicateVote.
	InsertVote(ctx context.Context, v Vote) error
	ListVotesByClaim(ctx context.Context, claimID uuid.UUID) ([]Vote, error)
	HasVoted(ctx context.Context, claimID uuid.UUID, voter IdentityID) (bool, error)
	// ListScoredVotes returns the identity's votes on finalized claims,
	// ascending by VotedAt.
	ListScoredVotes(ctx context.Context, voter IdentityID) ([]ScoredVote, error)
}
