// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (identity.go, claim.go, vote.go,
// reputation.go, audit.go, store.go, ...) with shared types and cross-cutting
// interfaces. Apart from a few pure helpers (signed message builders, audit
// hashing) there is no implementation code here - just contracts.
package domain
