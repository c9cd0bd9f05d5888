// Package users declares the repository contract for user records in
// persistent storage.
package users

import (
	"context"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// Repository defines operations on user records. Users are created once
// and never mutated or deleted by the authentication flows.
type Repository interface {
	// Create persists a new user and returns it with its assigned id.
	// A (email, method) pair that already exists yields ErrAccountExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByEmailAndMethod looks up the user for the given email
	// (compared case-insensitively) and authentication method.
	// Returns ErrNotFound when no such account exists.
	FindByEmailAndMethod(ctx context.Context, email string, method models.AuthMethod) (*models.User, error)

	// FindByID looks up a user by primary key.
	// Returns ErrNotFound when no such user exists.
	FindByID(ctx context.Context, id string) (*models.User, error)
}
