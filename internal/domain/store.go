package domain

import "context"

// Queries is the full set of store operations. It is implemented both by the
// store itself and by the handle passed into a transaction.
type Queries interface {
	IdentityRepository
	ClaimRepository
	VoteRepository
	OutcomeRepository
	ReputationCacheRepository
	PenaltyRepository
	AuditRepository
}

// Store is a transactional store over all persisted entities.
type Store interface {
	Queries

	// WithTx runs fn in a single transaction. Changes made through q become
	// visible to other readers only if fn returns nil.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	Ping(ctx context.Context) error
}

// SignatureVerifier checks a detached signature. Malformed input yields false.
type SignatureVerifier interface {
	Verify(message, signature []byte, identity IdentityID) bool
}
