package errors

import (
	"errors"
	"fmt"
)

// Common error types for the inventory console
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")

	// Session errors
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionEnded       = errors.New("session ended")
	ErrInvalidTransition  = errors.New("invalid session transition")
	ErrNoRefreshToken     = errors.New("no refresh token")
	ErrRoleChanged        = errors.New("role changed during session")
	ErrAlreadySignedIn    = errors.New("already signed in")
	ErrLoginInProgress    = errors.New("login already in progress")
	ErrForbiddenRole      = errors.New("role not permitted")
	ErrConsoleNotFound    = errors.New("console session not found")
	ErrConsoleSessionGone = errors.New("console session expired")

	// Transport errors
	ErrNetwork           = errors.New("network error")
	ErrMalformedResponse = errors.New("malformed response")

	// Input errors
	ErrValidation = errors.New("validation failed")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return errors.Join(errs...)
}
