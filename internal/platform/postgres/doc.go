// Package postgres provides PostgreSQL implementations of the store
// interfaces. The task store enforces the at-most-one-running-task-per-
// resource-key invariant with single-statement claims backed by a partial
// unique index, so any number of API, dispatcher, and reaper instances can
// share one database safely.
package postgres
