package httpserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/rumorpulse/internal/domain"
)

// Keys and signatures travel hex-encoded: 32-byte keys, 64-byte signatures.

type registerRequest struct {
	PublicKey string `json:"public_key" validate:"required,hexadecimal,len=64"`
	Signature string `json:"signature" validate:"required,hexadecimal,len=128"`
}

type claimRequest struct {
	CreatorID string    `json:"creator_id" validate:"required,hexadecimal,len=64"`
	Content   string    `json:"content" validate:"required,max=2000"`
	Category  string    `json:"category" validate:"omitempty,category"`
	Deadline  time.Time `json:"deadline" validate:"required"`
	Signature string    `json:"signature" validate:"required,hexadecimal,len=128"`
}

type voteRequest struct {
	VoterID   string `json:"voter_id" validate:"required,hexadecimal,len=64"`
	Value     *bool  `json:"value" validate:"required"`
	Signature string `json:"signature" validate:"required,hexadecimal,len=128"`
}

type deleteRequest struct {
	RequesterID string `json:"requester_id" validate:"required,hexadecimal,len=64"`
	Signature   string `json:"signature" validate:"required,hexadecimal,len=128"`
}

type identityResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type reputationResponse struct {
	IdentityID string  `json:"identity_id"`
	Reputation float64 `json:"reputation"`
	Weight     float64 `json:"weight"`
}

type claimResponse struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
	Deadline  time.Time `json:"deadline"`
}

func newClaimResponse(c *domain.Claim) claimResponse {
	return claimResponse{
		ID:        c.ID,
		Content:   c.Content,
		Category:  string(c.Category),
		CreatorID: c.CreatorID.String(),
		CreatedAt: c.CreatedAt,
		Deadline:  c.Deadline,
	}
}

type voteResponse struct {
	ClaimID uuid.UUID `json:"claim_id"`
	VoterID string    `json:"voter_id"`
	Value   bool      `json:"value"`
	VotedAt time.Time `json:"voted_at"`
}

type trustResponse struct {
	ClaimID   uuid.UUID `json:"claim_id"`
	Score     float64   `json:"score"`
	VoteCount int       `json:"vote_count"`
	Finalized bool      `json:"finalized"`
	Outcome   *bool     `json:"outcome,omitempty"`
}

type deleteResponse struct {
	ClaimID        uuid.UUID `json:"claim_id"`
	AffectedVoters int       `json:"affected_voters"`
}

type auditEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	Action      string    `json:"action"`
	ActorID     *string   `json:"actor_id"`
	TargetID    string    `json:"target_id"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

type auditPageResponse struct {
	Entries []auditEntryResponse `json:"entries"`
	// NextBefore is the cursor for the next page, absent on the last page.
	NextBefore *time.Time `json:"next_before,omitempty"`
}

func newAuditEntryResponse(e domain.AuditEntry) auditEntryResponse {
	r := auditEntryResponse{
		ID:          e.ID,
		Action:      string(e.Action),
		TargetID:    e.TargetID,
		ContentHash: e.ContentHash,
		CreatedAt:   e.CreatedAt,
	}
	if e.ActorID != nil {
		actor := e.ActorID.String()
		r.ActorID = &actor
	}
	return r
}
