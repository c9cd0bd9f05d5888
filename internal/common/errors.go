// Package common defines shared constants and sentinel errors used across
// authgate components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal  = errors.New("internal error")
	ErrTransient = errors.New("temporary storage failure")

	// Enrollment / sign-in errors. Messages are deliberately generic so the
	// HTTP layer can echo them without enumerating accounts.
	ErrAccountExists      = errors.New("that email address is not available using the provided authentication method")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// Auth errors (invalid or malformed access token).
	ErrInvalidToken = errors.New("invalid token")

	// Identity assertion errors.
	ErrInvalidAssertion = errors.New("invalid identity assertion")
	ErrUnverifiedEmail  = errors.New("email address is not verified")

	// Refresh token lifecycle errors.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
