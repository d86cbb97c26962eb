// Package store holds the credential stores the login session retrieves
// saved credentials and hints from, and saves authenticated credentials to.
package store

import (
	"context"
	"errors"

	"credential-orchestrator/internal/credential/domain"
)

// ErrUnavailable is returned when no credential store is installed. It is a
// fallback trigger, not a failure.
var ErrUnavailable = errors.New("credential store unavailable")

// Store is a credential manager. Retrieve and RequestHint return nil with a
// nil error when nothing matches the request.
type Store interface {
	Retrieve(ctx context.Context, req domain.RetrieveRequest) (*domain.Credential, error)
	RequestHint(ctx context.Context, req domain.RetrieveRequest) (*domain.Hint, error)
	Save(ctx context.Context, c domain.Credential) (domain.SaveResult, error)
	// ProviderName identifies the credential manager behind the store.
	ProviderName() string
}

// HintWriter is implemented by stores that accept hints from outside the
// platform (seed data, tests).
type HintWriter interface {
	AddHint(ctx context.Context, h domain.Hint) error
}

// Unavailable is a Store for platforms without a credential manager.
type Unavailable struct{}

func (Unavailable) Retrieve(context.Context, domain.RetrieveRequest) (*domain.Credential, error) {
	return nil, ErrUnavailable
}

func (Unavailable) RequestHint(context.Context, domain.RetrieveRequest) (*domain.Hint, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Save(context.Context, domain.Credential) (domain.SaveResult, error) {
	return "", ErrUnavailable
}

func (Unavailable) ProviderName() string { return "" }

func validForSave(c domain.Credential) bool {
	return c.Identifier != "" && c.Method != ""
}
