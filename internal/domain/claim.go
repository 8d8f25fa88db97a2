package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryGeneral       Category = "general"
	CategoryPolitics      Category = "politics"
	CategoryScience       Category = "science"
	CategoryHealth        Category = "health"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryTechnology    Category = "technology"
	CategoryCampus        Category = "campus"
)

var categories = map[Category]struct{}{
	CategoryGeneral:       {},
	CategoryPolitics:      {},
	CategoryScience:       {},
	CategoryHealth:        {},
	CategorySports:        {},
	CategoryEntertainment: {},
	CategoryTechnology:    {},
	CategoryCampus:        {},
}

// ParseCategory returns the category for s, falling back to general when s is empty.
func ParseCategory(s string) (Category, bool) {
	if s == "" {
		return CategoryGeneral, true
	}
	c := Category(s)
	_, ok := categories[c]
	return c, ok
}

const MaxClaimContentLength = 2000

// Claim is a time-boxed statement open for voting until Deadline.
// The deadline is immutable once set.
type Claim struct {
	ID        uuid.UUID
	Content   string
	Category  Category
	CreatorID IdentityID
	CreatedAt time.Time
	Deadline  time.Time
}

// Open reports whether votes are still accepted at now.
func (c *Claim) Open(now time.Time) bool {
	return now.Before(c.Deadline)
}

type ClaimRepository interface {
	InsertClaim(ctx context.Context, claim Claim) error
	GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error)
	// GetClaimForUpdate reads the claim and holds a row lock until the
	// enclosing transaction ends. Outside a transaction it behaves like GetClaim.
	GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*Claim, error)
	ListClaims(ctx context.Context, limit int) ([]Claim, error)
	// ListDueClaims returns claims whose deadline is at or before now and
	// which have no finalized outcome yet, oldest deadline first.
	ListDueClaims(ctx context.Context, now time.Time, limit int) ([]Claim, error)
	// DeleteClaim removes the claim together with its votes and outcome.
	DeleteClaim(ctx context.Context, id uuid.UUID) error
}
