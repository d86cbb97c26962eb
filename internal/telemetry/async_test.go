package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"credential-orchestrator/internal/telemetry/domain"
)

type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.LoginEvent
	emitErr error
	done    chan struct{}
}

func newMockEmitter(expected int) *mockEventEmitter {
	return &mockEventEmitter{done: make(chan struct{}, expected)}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.LoginEvent) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.emitErr
}

func (m *mockEventEmitter) wait(t *testing.T, n int) []*domain.LoginEvent {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.LoginEvent(nil), m.events...)
}

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(nil, &domain.LoginEvent{EventType: domain.EventLoginStarted})

	m := newMockEmitter(1)
	EmitAsync(m, nil)
	time.Sleep(10 * time.Millisecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) != 0 {
		t.Errorf("expected 0 events, got %d", len(m.events))
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	m := newMockEmitter(1)
	EmitAsync(m, &domain.LoginEvent{SessionID: "s1", EventType: domain.EventLoginCompleted, Phase: "complete"})

	events := m.wait(t, 1)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].SessionID != "s1" || events[0].EventType != domain.EventLoginCompleted {
		t.Errorf("event = %+v", events[0])
	}
}

func TestEmitAsync_ErrorIsLoggedNotReturned(t *testing.T) {
	m := newMockEmitter(1)
	m.emitErr = errors.New("collector down")
	EmitAsync(m, &domain.LoginEvent{EventType: domain.EventLoginFaulted})
	m.wait(t, 1)
}

func TestEmitAsync_Concurrent(t *testing.T) {
	m := newMockEmitter(10)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(m, &domain.LoginEvent{EventType: domain.EventLoginStarted})
		}()
	}
	wg.Wait()
	if events := m.wait(t, 10); len(events) != 10 {
		t.Errorf("expected 10 events, got %d", len(events))
	}
}
