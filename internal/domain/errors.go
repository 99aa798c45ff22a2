package domain

import "errors"

// Error kinds recognised at the API boundary. Handlers and repositories
// wrap these with fmt.Errorf("...: %w", Err...) so callers can match with
// errors.Is while keeping a human-readable message.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidSignature   = errors.New("invalid signature")
)
