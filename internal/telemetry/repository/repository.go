package repository

import (
	"context"

	"credential-orchestrator/internal/telemetry/domain"
)

// Repository defines persistence for the login event journal.
type Repository interface {
	Save(ctx context.Context, e *domain.LoginEvent) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.LoginEvent, error)
}
