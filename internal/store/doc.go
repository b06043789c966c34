// Package store defines the persistence interfaces for the application's
// durable records: tasks, candidates, and match results. Implementations
// live under internal/platform. All coordination between the dispatcher,
// the reaper, and concurrent submitters goes through these interfaces, so
// the claim operations must be atomic with respect to concurrent callers.
package store
