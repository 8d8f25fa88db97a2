// Package memory implements domain.Store in process memory.
//
// It enforces the same constraints as the PostgreSQL schema (unique votes,
// insert-once outcomes, cascade deletes, deadline-guarded vote inserts) and
// gives transactions all-or-nothing semantics by snapshotting state. It backs
// single-instance development mode and the unit tests of the app and
// reputation packages.
package memory
