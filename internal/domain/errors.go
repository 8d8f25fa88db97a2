package domain

import "errors"

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrClaimNotFound    = errors.New("claim not found")

	ErrIdentityExists   = errors.New("identity already registered")
	ErrDuplicateVote    = errors.New("identity has already voted on this claim")
	ErrAlreadyFinalized = errors.New("claim already finalized")

	ErrVotingClosed  = errors.New("voting deadline has passed")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidPubKey = errors.New("invalid public key")

	ErrInvalidSignature = errors.New("invalid signature")
	ErrNotCreator       = errors.New("requester is not the claim creator")
	ErrVoteRequired     = errors.New("vote on this claim before viewing its unfinalized score")
	ErrRateLimited      = errors.New("vote rate limit exceeded")

	// ErrStoreUnavailable marks transient store failures (timeouts, lost
	// connections). Callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)
