package reputation

import (
	"math"
	"slices"
	"time"

	"github.com/pscheid92/rumorpulse/internal/domain"
)

const (
	// CreatorPenalty is subtracted permanently when a creator deletes a
	// claim that was finalized false.
	CreatorPenalty = 0.2

	decayHorizonDays = 30.0
	correctGrowth    = 1.15
	correctIncrement = 0.15
	incorrectDecay   = 0.85
	normalizeScale   = 100.0
)

// Compute replays votes oldest first under the exponential-decay policy,
// bounds the result with tanh, then adds the penalty sum. The result is
// rounded to one decimal.
func Compute(votes []domain.ScoredVote, penalties float64, asOf time.Time) float64 {
	ordered := slices.Clone(votes)
	slices.SortStableFunc(ordered, func(a, b domain.ScoredVote) int {
		return a.VotedAt.Compare(b.VotedAt)
	})

	rep := 0.0
	for _, v := range ordered {
		if v.Correct() {
			rep = rep*correctGrowth + correctIncrement*recency(v.VotedAt, asOf)
		} else {
			rep *= incorrectDecay
		}
	}
	rep = math.Tanh(rep/normalizeScale) * normalizeScale

	return Round1(rep + penalties)
}

func recency(votedAt, asOf time.Time) float64 {
	ageDays := asOf.Sub(votedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-ageDays / decayHorizonDays)
}

// Weight converts a reputation into voting power. Non-positive reputation
// counts as exactly 1; a positive reputation is used as is, even below 1.
func Weight(rep float64) float64 {
	if rep > 0 {
		return rep
	}
	return 1
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}
