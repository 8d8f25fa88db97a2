package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/reputation"
)

type deletionRecord struct {
	ClaimID   uuid.UUID         `json:"claim_id"`
	CreatorID domain.IdentityID `json:"creator_id"`
	Voters    int               `json:"voters"`
	Finalized bool              `json:"finalized"`
	Outcome   *bool             `json:"outcome,omitempty"`
}

// DeleteClaim hard-deletes a claim on behalf of its creator and returns the
// number of voters whose reputation was affected. Votes and any outcome go
// with it. Deleting a claim finalized false costs the creator a permanent
// penalty, so deletion cannot erase a debunked claim from their record.
func (s *Service) DeleteClaim(ctx context.Context, claimID uuid.UUID, requester domain.IdentityID, signature []byte) (int, error) {
	claim, err := s.store.GetClaim(ctx, claimID)
	if err != nil {
		return 0, err
	}
	if claim.CreatorID != requester {
		return 0, domain.ErrNotCreator
	}
	if !s.verifier.Verify(domain.DeleteMessage(claimID), signature, requester) {
		return 0, domain.ErrInvalidSignature
	}

	now := s.clock.Now()
	var (
		voters    []domain.IdentityID
		finalized bool
		penalized bool
	)

	err = s.store.WithTx(ctx, func(q domain.Queries) error {
		// Holding the claim row keeps a concurrent sweep from committing an
		// outcome between the read below and the delete.
		if _, err := q.GetClaimForUpdate(ctx, claimID); err != nil {
			return err
		}

		votes, err := q.ListVotesByClaim(ctx, claimID)
		if err != nil {
			return err
		}
		voters = distinctVoters(votes)

		outcome, err := q.GetOutcome(ctx, claimID)
		if err != nil {
			return err
		}

		record := deletionRecord{ClaimID: claimID, CreatorID: claim.CreatorID, Voters: len(voters)}
		if outcome != nil {
			finalized = true
			record.Finalized = true
			record.Outcome = &outcome.Outcome
		}
		entry, err := domain.NewAuditEntry(domain.AuditDelete, domain.ActorRef(requester), claimID.String(), record, now)
		if err != nil {
			return err
		}
		if err := q.InsertAudit(ctx, entry); err != nil {
			return err
		}

		if err := q.DeleteClaim(ctx, claimID); err != nil {
			return err
		}
		if err := s.engine.Invalidate(ctx, q, voters...); err != nil {
			return err
		}

		if outcome == nil || outcome.Outcome {
			return s.engine.Invalidate(ctx, q, claim.CreatorID)
		}

		penalized = true
		return s.penalizeCreator(ctx, q, claim.CreatorID, claimID)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete claim: %w", err)
	}

	s.metrics.Votes.ClaimsDeleted.WithLabelValues(strconv.FormatBool(finalized)).Inc()
	if penalized {
		s.metrics.Reputation.PenaltiesApplied.Inc()
	}
	slog.InfoContext(ctx, "Claim deleted", "claim_id", claimID, "creator", claim.CreatorID, "voters", len(voters), "finalized", finalized, "penalized", penalized)
	return len(voters), nil
}

// penalizeCreator records the permanent penalty, then recomputes the
// creator's reputation inside the deleting transaction and caches it.
func (s *Service) penalizeCreator(ctx context.Context, q domain.Queries, creator domain.IdentityID, claimID uuid.UUID) error {
	now := s.clock.Now()

	penalty := domain.ReputationPenalty{
		ID:         uuid.New(),
		IdentityID: creator,
		Amount:     -reputation.CreatorPenalty,
		Reason:     domain.PenaltyReasonDeletedFalseClaim,
		ClaimID:    claimID,
		CreatedAt:  now,
	}
	if err := q.InsertPenalty(ctx, penalty); err != nil {
		return err
	}

	fresh, err := s.engine.Recompute(ctx, q, creator, now)
	if err != nil {
		return err
	}
	return q.UpsertCachedReputation(ctx, domain.CachedReputation{
		IdentityID: creator,
		Reputation: fresh,
		ComputedAt: now,
	})
}

func distinctVoters(votes []domain.Vote) []domain.IdentityID {
	seen := make(map[domain.IdentityID]struct{}, len(votes))
	out := make([]domain.IdentityID, 0, len(votes))
	for _, v := range votes {
		if _, ok := seen[v.VoterID]; ok {
			continue
		}
		seen[v.VoterID] = struct{}{}
		out = append(out, v.VoterID)
	}
	return out
}
