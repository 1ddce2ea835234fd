package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrAuthenticationRequired is returned when an operation needs a signed-in user.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrInvalidInput marks request payloads that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable wraps transport or backend failures of the document store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
