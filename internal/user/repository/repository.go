package repository

import (
	"context"
	"errors"

	"credential-orchestrator/internal/user/domain"
)

// ErrEmailTaken is returned by Create when another user already holds the email.
var ErrEmailTaken = errors.New("email already registered")

// Repository persists directory users. Email lookups are case-insensitive.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// Delete removes the user and, through the schema, its identities. Deleting a missing user is not an error.
	Delete(ctx context.Context, id string) error
}
