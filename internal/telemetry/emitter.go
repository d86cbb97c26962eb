package telemetry

import (
	"context"

	"credential-orchestrator/internal/telemetry/domain"
)

// EventEmitter emits login events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.LoginEvent) error
}
