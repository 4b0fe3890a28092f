package domain

import "errors"

var (
	// ErrValidation marks caller misuse: malformed input or configuration.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup for an id the authority or store does not know.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an operation rejected because of current state.
	ErrConflict = errors.New("conflict")
)
