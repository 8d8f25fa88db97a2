// Package app provides the application service layer.
//
// Service orchestrates the use cases (registration, claims, votes, trust
// scores, deletion) on top of the domain store and the reputation engine.
// Finalizer sweeps claims past their deadline into immutable outcomes.
// Depends on domain interfaces, not concrete adapters.
package app
