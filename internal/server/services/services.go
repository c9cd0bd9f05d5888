// Package services contains the server-side business logic: enrolling new
// accounts, authenticating existing ones, and rotating refresh tokens.
package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// refreshTokenBytes is the amount of random data behind each opaque
// refresh token value.
const refreshTokenBytes = 64

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// newRefreshValue returns a fresh opaque refresh token value:
// cryptographically secure random data, base64-encoded.
func newRefreshValue() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// classifyStoreError folds a storage failure into the service error
// taxonomy: domain sentinels pass through, timeouts become ErrTransient
// (retryable by the client), everything else ErrInternal. The original
// cause stays in the chain for server-side logging; the HTTP layer only
// ever echoes the sentinel's canned message.
func classifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrAccountExists),
		errors.Is(err, common.ErrInvalidRefreshToken),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return err
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return fmt.Errorf("%w: %v", common.ErrTransient, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
}
