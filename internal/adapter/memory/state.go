package memory

import (
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/pscheid92/rumorpulse/internal/domain"
)

type state struct {
	identities map[domain.IdentityID]domain.Identity
	claims     map[uuid.UUID]domain.Claim
	votes      map[uuid.UUID]map[domain.IdentityID]domain.Vote
	outcomes   map[uuid.UUID]domain.FinalizedOutcome
	cache      map[domain.IdentityID]domain.CachedReputation
	penalties  []domain.ReputationPenalty
	audit      []domain.AuditEntry
}

func newState() *state {
	return &state{
		identities: make(map[domain.IdentityID]domain.Identity),
		claims:     make(map[uuid.UUID]domain.Claim),
		votes:      make(map[uuid.UUID]map[domain.IdentityID]domain.Vote),
		outcomes:   make(map[uuid.UUID]domain.FinalizedOutcome),
		cache:      make(map[domain.IdentityID]domain.CachedReputation),
	}
}

func (s *state) clone() *state {
	votes := make(map[uuid.UUID]map[domain.IdentityID]domain.Vote, len(s.votes))
	for claimID, byVoter := range s.votes {
		votes[claimID] = maps.Clone(byVoter)
	}
	return &state{
		identities: maps.Clone(s.identities),
		claims:     maps.Clone(s.claims),
		votes:      votes,
		outcomes:   maps.Clone(s.outcomes),
		cache:      maps.Clone(s.cache),
		penalties:  slices.Clone(s.penalties),
		audit:      slices.Clone(s.audit),
	}
}
