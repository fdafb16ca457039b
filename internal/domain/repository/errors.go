package repository

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate or constraint violation,
	// e.g. leasing a unit that already has an active lease.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates malformed input data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller is authenticated but lacks access.
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates an API token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsForbidden reports whether err is ErrForbidden.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
