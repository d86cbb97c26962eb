package repository

import (
	"context"
	"sync"

	"credential-orchestrator/internal/identity/domain"
)

type providerSubject struct {
	providerID string
	subject    string
}

// MemoryRepository is an in-process identity repository for development and tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	byUser    map[string][]domain.Identity
	bySubject map[providerSubject]domain.Identity
}

// NewMemoryRepository returns an empty in-memory identity repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byUser:    make(map[string][]domain.Identity),
		bySubject: make(map[providerSubject]domain.Identity),
	}
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byUser[userID]
	out := make([]*domain.Identity, len(ids))
	for n := range ids {
		i := ids[n]
		out[n] = &i
	}
	return out, nil
}

func (r *MemoryRepository) GetByProviderSubject(_ context.Context, providerID, subject string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.bySubject[providerSubject{providerID, subject}]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r *MemoryRepository) Create(_ context.Context, i *domain.Identity) error {
	key := providerSubject{i.ProviderID, i.Subject}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySubject[key]; ok {
		return ErrIdentityExists
	}
	r.bySubject[key] = *i
	r.byUser[i.UserID] = append(r.byUser[i.UserID], *i)
	return nil
}
