package store

import (
	"context"
	"sync"
	"time"

	"credential-orchestrator/internal/credential/domain"
)

type savedEntry struct {
	cred    domain.Credential
	savedAt time.Time
	seq     uint64
}

func (e savedEntry) newerThan(o savedEntry) bool {
	if e.savedAt.Equal(o.savedAt) {
		return e.seq > o.seq
	}
	return e.savedAt.After(o.savedAt)
}

// MemoryStore keeps credentials and hints in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	provider string
	saved    map[string]savedEntry
	hints    []domain.Hint
	seq      uint64
	nowF     func() time.Time
}

// NewMemoryStore returns an empty store reporting provider as its name.
func NewMemoryStore(provider string) *MemoryStore {
	return &MemoryStore{
		provider: provider,
		saved:    make(map[string]savedEntry),
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

func credentialKey(c domain.Credential) string {
	return string(c.Method) + "|" + c.Identifier
}

// Retrieve returns the most recently saved credential whose method the request supports.
func (s *MemoryStore) Retrieve(_ context.Context, req domain.RetrieveRequest) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *savedEntry
	for _, e := range s.saved {
		if !req.Supports(e.cred.Method) {
			continue
		}
		if best == nil || e.newerThan(*best) {
			e := e
			best = &e
		}
	}
	if best == nil {
		return nil, nil
	}
	c := best.cred
	return &c, nil
}

// RequestHint returns the first added hint whose method the request supports.
func (s *MemoryStore) RequestHint(_ context.Context, req domain.RetrieveRequest) (*domain.Hint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hints {
		if req.Supports(h.Method) {
			h := h
			return &h, nil
		}
	}
	return nil, nil
}

// Save stores c, replacing any credential with the same identifier and method.
func (s *MemoryStore) Save(_ context.Context, c domain.Credential) (domain.SaveResult, error) {
	if !validForSave(c) {
		return domain.SaveResultRejected, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.saved[credentialKey(c)] = savedEntry{cred: c, savedAt: s.nowF(), seq: s.seq}
	return domain.SaveResultSaved, nil
}

// AddHint offers h to later hint requests.
func (s *MemoryStore) AddHint(_ context.Context, h domain.Hint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints = append(s.hints, h)
	return nil
}

func (s *MemoryStore) ProviderName() string { return s.provider }
