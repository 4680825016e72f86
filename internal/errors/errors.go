package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the dev auth API and its clients
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotVerified    = errors.New("user is not verified")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors
	ErrInvalidToken             = errors.New("invalid token")
	ErrTokenExpired             = errors.New("token expired")
	ErrTokenRevoked             = errors.New("token revoked")
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
	ErrRefreshTokenExpired      = errors.New("refresh token expired")
	ErrInvalidVerificationToken = errors.New("invalid verification token")

	// Identity provider errors
	ErrInvalidProviderToken = errors.New("invalid provider token")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
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

// IsUnauthorized reports whether err means the caller's credentials or tokens were rejected.
func IsUnauthorized(err error) bool {
	return Is(err, ErrInvalidCredentials) ||
		Is(err, ErrInvalidToken) ||
		Is(err, ErrTokenExpired) ||
		Is(err, ErrTokenRevoked) ||
		Is(err, ErrInvalidRefreshToken) ||
		Is(err, ErrRefreshTokenExpired) ||
		Is(err, ErrInvalidProviderToken)
}

// PublicError pairs a sentinel with the message shown to API callers.
type PublicError struct {
	Err     error
	Message string
}

func (e *PublicError) Error() string { return e.Message }

func (e *PublicError) Unwrap() error { return e.Err }

// WithMessage attaches a caller-facing message to err.
func WithMessage(err error, message string) error {
	if err == nil {
		return nil
	}
	return &PublicError{Err: err, Message: message}
}

// PublicMessage returns the caller-facing message carried by err, or fallback.
func PublicMessage(err error, fallback string) string {
	var pe *PublicError
	if As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return fallback
}
