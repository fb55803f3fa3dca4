package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	// ErrInvalid marks malformed or missing input; the request must be fixed
	// before a retry can succeed.
	ErrInvalid = errors.New("invalid")
	// ErrNotFound indicates the referenced card does not exist.
	ErrNotFound = errors.New("not_found")
	// ErrConflict indicates a duplicate creation (card id already taken).
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates a webhook API-key mismatch.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStorage wraps backing-store failures; callers may retry.
	ErrStorage = errors.New("storage")
)
