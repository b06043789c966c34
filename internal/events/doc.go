// Package events provides the application-wide "queue changed" signal.
// Any component that performs an action known to change queue state
// (submit, delete, retry, run-now, cancel, cleanup, task completion)
// emits a QueueEvent so listeners can refresh immediately instead of
// waiting out their next poll interval. The signal is fire-and-forget:
// the system stays correct with no emitter wired at all, because clients
// poll the task store on a fixed interval and self-correct.
package events
