package attendance

import "errors"

var (
	// ErrSessionInactive is returned when the session's active flag is off.
	ErrSessionInactive = errors.New("session not active")
	// ErrSessionExpired is returned when the session's window has
	// elapsed, regardless of the active flag.
	ErrSessionExpired = errors.New("session expired")
	// ErrDuplicate is returned when the student already has a record
	// for the session. Distinct from validation failures so clients
	// can render "already marked".
	ErrDuplicate = errors.New("attendance already marked")
	// ErrValidation wraps malformed input.
	ErrValidation = errors.New("validation failed")
)
