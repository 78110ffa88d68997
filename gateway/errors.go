package gateway

import "errors"

// Dispatch failure taxonomy. Every executor failure wraps exactly one of
// these sentinels so the protocol layer can map it to the correct wire-level
// error response, and operators can tell a misconfigured agent identifier
// apart from an unreachable backend.
var (
	// ErrNotRegistered indicates the requested agent identifier has no
	// executor factory. This is a configuration error, surfaced at startup
	// or first resolution.
	ErrNotRegistered = errors.New("agent not registered")

	// ErrBackendUnavailable indicates the backend runtime could not locate,
	// load, or serve the agent. Transient; callers may retry.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrInvalidPayload indicates the task input could not be parsed into
	// the shape the backend expects. Permanent; the caller must resubmit
	// corrected input.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrCancellationUnsupported indicates cancellation was requested but
	// cannot be honored. There is no cancellation channel into the backend
	// runtime.
	ErrCancellationUnsupported = errors.New("cancellation not supported")
)
