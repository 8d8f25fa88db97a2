package reputation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/stretchr/testify/assert"
)

var asOf = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func scored(correct bool, votedAt time.Time) domain.ScoredVote {
	return domain.ScoredVote{
		Vote:    domain.Vote{ClaimID: uuid.New(), VoterID: "voter", Value: true, VotedAt: votedAt},
		Outcome: correct,
	}
}

func repeat(n int, correct bool, from time.Time) []domain.ScoredVote {
	out := make([]domain.ScoredVote, 0, n)
	for i := range n {
		out = append(out, scored(correct, from.Add(time.Duration(i)*time.Second)))
	}
	return out
}

func TestCompute(t *testing.T) {
	recent := asOf.Add(-time.Minute)

	tests := []struct {
		name      string
		votes     []domain.ScoredVote
		penalties float64
		want      float64
	}{
		{name: "no history", want: 0},
		{name: "single correct vote", votes: repeat(1, true, recent), want: 0.1},
		{name: "ten correct votes", votes: repeat(10, true, recent), want: 3.0},
		{name: "incorrect votes only", votes: repeat(5, false, recent), want: 0},
		{name: "old correct vote decays away", votes: repeat(1, true, asOf.AddDate(0, 0, -300)), want: 0},
		{name: "correct streak then misses", votes: append(repeat(10, true, recent.Add(-time.Hour)), repeat(5, false, recent)...), want: 1.4},
		{name: "misses then correct streak", votes: append(repeat(5, false, recent.Add(-time.Hour)), repeat(10, true, recent)...), want: 3.0},
		{name: "penalty applied", penalties: -0.2, want: -0.2},
		{name: "votes and penalty", votes: repeat(10, true, recent), penalties: -0.2, want: 2.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Compute(tt.votes, tt.penalties, asOf), 1e-9)
		})
	}
}

func TestCompute_IndependentOfInputOrder(t *testing.T) {
	recent := asOf.Add(-time.Hour)
	votes := append(repeat(10, true, recent), repeat(5, false, recent.Add(time.Minute))...)

	reversed := make([]domain.ScoredVote, len(votes))
	for i, v := range votes {
		reversed[len(votes)-1-i] = v
	}

	first := Compute(votes, 0, asOf)
	assert.Equal(t, first, Compute(reversed, 0, asOf))
	assert.Equal(t, first, Compute(votes, 0, asOf))
	assert.InDelta(t, 1.4, first, 1e-9)
}

func TestCompute_Bounded(t *testing.T) {
	rep := Compute(repeat(500, true, asOf.Add(-time.Hour)), 0, asOf)
	assert.LessOrEqual(t, rep, 100.0)
	assert.Greater(t, rep, 99.0)
}

func TestCompute_FutureVoteCountsAsFresh(t *testing.T) {
	assert.InDelta(t, 0.1, Compute(repeat(1, true, asOf.Add(time.Hour)), 0, asOf), 1e-9)
}

func TestWeight(t *testing.T) {
	assert.Equal(t, 1.0, Weight(0))
	assert.Equal(t, 1.0, Weight(-3.4))
	assert.Equal(t, 40.0, Weight(40))
	assert.Equal(t, 0.5, Weight(0.5))
	assert.InDelta(t, 0.1, Weight(Compute(repeat(1, true, asOf), 0, asOf)), 1e-9)
}

func TestRound1(t *testing.T) {
	assert.InDelta(t, 97.6, Round1(40.0/41.0*100), 1e-9)
	assert.InDelta(t, -0.2, Round1(-0.24), 1e-9)
	assert.InDelta(t, 0.3, Round1(0.25), 1e-9)
}
