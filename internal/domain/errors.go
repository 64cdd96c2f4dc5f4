package domain

import "errors"

// Error kinds surfaced to callers. Handlers map these to status codes;
// everything else is treated as an internal failure.
var (
	// ErrUnknownScenario means the requested scenario id is not in the catalog.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrSessionNotFound means no live session exists for the given id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidAudio means the submitted audio blob was empty or malformed.
	ErrInvalidAudio = errors.New("invalid audio")

	// ErrProviderFailure means the external voice service failed. The
	// session history is left untouched, so retrying the turn is safe.
	ErrProviderFailure = errors.New("voice provider failure")
)
