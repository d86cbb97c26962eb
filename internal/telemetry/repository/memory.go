package repository

import (
	"context"
	"sync"

	"credential-orchestrator/internal/telemetry/domain"
)

// MemoryRepository keeps the journal in process. Used when no database is configured and in tests.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	events []domain.LoginEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(_ context.Context, e *domain.LoginEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	r.events = append(r.events, *e)
	return nil
}

func (r *MemoryRepository) ListBySession(_ context.Context, sessionID string) ([]*domain.LoginEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.LoginEvent
	for i := range r.events {
		if r.events[i].SessionID == sessionID {
			e := r.events[i]
			out = append(out, &e)
		}
	}
	return out, nil
}
