// Package redis provides the optional Redis coordination layer.
//
// The finalizer uses LeaderElector so that a single instance sweeps due
// claims at a time. The client carries a metrics hook and a circuit breaker
// hook; Postgres stays the store of record.
package redis
