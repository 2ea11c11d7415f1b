package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories when no record matches.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write loses a uniqueness race.
	ErrConflict = errors.New("conflict")
	// ErrEmailTaken is returned on registration with an already-used email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown email, missing password hash and
	// wrong password alike. Callers must not be able to tell these apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoProviderEmail is returned when an OAuth assertion carries no email.
	ErrNoProviderEmail = errors.New("provider returned no email")
	// ErrUnauthorized means no valid session is attached to the request.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the principal is authenticated but not the owner.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionExists is returned when a session id is already in use.
	ErrSessionExists = errors.New("session id already exists")
)

// ValidationError marks malformed input at the service boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
