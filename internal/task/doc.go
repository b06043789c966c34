// Package task contains the asynchronous orchestration core: the execution
// engine that runs parse, match-batch, and generate tasks; the progress
// stream that turns engine checkpoints into an ordered, caller-visible
// event sequence; the dispatcher that promotes due deferred tasks; and the
// reaper that force-clears tasks stuck in the running state. Execution is
// decoupled from any HTTP connection: the task store is the source of
// truth, and streams are only a view of it.
package task
