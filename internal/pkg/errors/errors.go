package errors

import "errors"

// Shared application errors. Services wrap these with fmt.Errorf("%w: ...")
// so handlers can map them to HTTP statuses with errors.Is.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for authentication failures (missing,
	// malformed or expired token, wrong credentials). Callers must not be
	// able to tell these cases apart.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the authenticated principal lacks the
	// required role.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for invalid input data.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a record with the same identity already
	// exists.
	ErrConflict = errors.New("resource already exists")

	// ErrRateLimited is returned when an anti-abuse window (cooldown, spam
	// lock, account lock) blocks the request.
	ErrRateLimited = errors.New("too many requests")
)
