package repository

import (
	"context"
	"errors"

	"credential-orchestrator/internal/identity/domain"
)

// ErrIdentityExists is returned by Create when the provider/subject pair is already linked.
var ErrIdentityExists = errors.New("identity already linked")

// Repository persists the sign-in identities linked to directory users.
type Repository interface {
	// ListByUser returns every identity of userID in creation order.
	ListByUser(ctx context.Context, userID string) ([]*domain.Identity, error)
	// GetByProviderSubject returns the identity for (providerID, subject), or nil if not found.
	GetByProviderSubject(ctx context.Context, providerID, subject string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
}
