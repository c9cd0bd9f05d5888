// Package refreshtokens declares the repository contract for refresh
// tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and consuming
// refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of
	// now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find looks up a refresh token by its opaque value and returns its
	// metadata. Returns ErrNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its opaque value. Returns
	// ErrNotFound when no row was deleted, which lets rotation detect
	// a token that was concurrently consumed.
	Delete(ctx context.Context, token string) error
}
