package shared

import "errors"

var (
	// ErrNotFound indicates a referenced entity is missing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates a lifecycle guard rejected the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation indicates input failed the pre-save gate.
	ErrValidation = errors.New("validation failed")
)
