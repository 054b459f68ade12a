// Package apperr defines the sentinel errors services return and their
// mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// validation errors
	ErrValidation = errors.New("validation error")

	// registration errors
	ErrUsernameTaken        = errors.New("username is already taken")
	ErrEmailAlreadyVerified = errors.New("email is already registered and verified")
	ErrDeliveryFailed       = errors.New("verification email delivery failed")

	// verification errors
	ErrCodeExpired  = errors.New("verification code has expired")
	ErrCodeMismatch = errors.New("verification code does not match")

	// auth errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account is not verified")
	ErrUnauthorized       = errors.New("not authenticated")

	// mailbox errors
	ErrNotFound       = errors.New("not found")
	ErrNotAccepting   = errors.New("user is not accepting messages")
	ErrAlreadyDeleted = errors.New("message was already deleted")

	ErrInternal = errors.New("internal error")
)

// Status maps a service error to the HTTP status code the handler should
// respond with. Unknown errors are treated as internal.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrEmailAlreadyVerified),
		errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrCodeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotVerified), errors.Is(err, ErrNotAccepting):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyDeleted):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
