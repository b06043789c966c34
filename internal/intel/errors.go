package intel

import "errors"

// Errors returned by provider implementations. The engine uses these to
// distinguish a failure of one unit of work from the provider being
// globally unavailable.
var (
	// ErrInvalidConfig indicates the provider was constructed with missing
	// or invalid configuration.
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrInvalidResponse indicates the provider returned a response that
	// could not be interpreted (empty, malformed, or unparseable).
	ErrInvalidResponse = errors.New("invalid provider response")

	// ErrContentBlocked indicates the provider refused the request, for
	// example due to safety filtering. Not retryable.
	ErrContentBlocked = errors.New("content blocked by provider")

	// ErrTransientFailure indicates a call failed after exhausting retries
	// for what looked like a temporary condition.
	ErrTransientFailure = errors.New("transient provider failure")

	// ErrUnavailable indicates the provider is globally unreachable, for
	// example because the circuit breaker is open. A match batch aborts as
	// a whole when it sees this, instead of burning through every item.
	ErrUnavailable = errors.New("provider unavailable")
)
