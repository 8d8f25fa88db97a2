package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/reputation"
)

const neutralScore = 50.0

// TrustScore returns the claim's weighted trust score. A finalized claim
// reports its stored outcome without recomputation. For an open claim, a
// requester that has not voted on it is refused.
func (s *Service) TrustScore(ctx context.Context, claimID uuid.UUID, requester *domain.IdentityID) (domain.TrustScore, error) {
	if _, err := s.store.GetClaim(ctx, claimID); err != nil {
		return domain.TrustScore{}, err
	}

	outcome, err := s.store.GetOutcome(ctx, claimID)
	if err != nil {
		return domain.TrustScore{}, err
	}
	if outcome != nil {
		return domain.TrustScore{
			ClaimID:   claimID,
			Score:     outcome.TrustScore,
			VoteCount: outcome.TotalVotes,
			Finalized: true,
			Outcome:   &outcome.Outcome,
		}, nil
	}

	if requester != nil {
		voted, err := s.store.HasVoted(ctx, claimID, *requester)
		if err != nil {
			return domain.TrustScore{}, err
		}
		if !voted {
			return domain.TrustScore{}, domain.ErrVoteRequired
		}
	}

	votes, err := s.store.ListVotesByClaim(ctx, claimID)
	if err != nil {
		return domain.TrustScore{}, err
	}
	trueWeight, falseWeight, err := tally(ctx, s.engine, votes)
	if err != nil {
		return domain.TrustScore{}, err
	}

	return domain.TrustScore{
		ClaimID:   claimID,
		Score:     score(trueWeight, falseWeight),
		VoteCount: len(votes),
	}, nil
}

// tally sums the current vote weight of every voter per side.
func tally(ctx context.Context, engine *reputation.Engine, votes []domain.Vote) (trueWeight, falseWeight float64, err error) {
	for _, v := range votes {
		w, err := engine.WeightFor(ctx, v.VoterID)
		if err != nil {
			return 0, 0, err
		}
		if v.Value {
			trueWeight += w
		} else {
			falseWeight += w
		}
	}
	return trueWeight, falseWeight, nil
}

// score is the share of weight on the true side, in percent. Without votes
// it is neutral.
func score(trueWeight, falseWeight float64) float64 {
	total := trueWeight + falseWeight
	if total == 0 {
		return neutralScore
	}
	return reputation.Round1(trueWeight / total * 100)
}
