package session

import "errors"

var (
	// ErrNotFound is returned when no session exists for the given id.
	ErrNotFound = errors.New("session not found")
	// ErrNotOwner is returned when a caller mutates or reads a
	// session restricted to its owning lecturer.
	ErrNotOwner = errors.New("caller does not own this session")
	// ErrValidation wraps malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
)
