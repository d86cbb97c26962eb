package repository

import (
	"context"
	"testing"

	"credential-orchestrator/internal/telemetry/domain"
)

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)

func TestMemoryRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	events := []*domain.LoginEvent{
		{SessionID: "s1", EventType: domain.EventLoginStarted},
		{SessionID: "s2", EventType: domain.EventLoginStarted},
		{SessionID: "s1", EventType: domain.EventLoginCompleted, Phase: "complete"},
	}
	for _, e := range events {
		if err := r.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if events[0].ID != 1 || events[2].ID != 3 {
		t.Errorf("ids = %d, %d, want 1, 3", events[0].ID, events[2].ID)
	}

	got, err := r.ListBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].EventType != domain.EventLoginStarted || got[1].EventType != domain.EventLoginCompleted {
		t.Errorf("order = %s, %s", got[0].EventType, got[1].EventType)
	}

	got[0].Detail = "mutated"
	again, _ := r.ListBySession(ctx, "s1")
	if again[0].Detail != "" {
		t.Error("ListBySession should return copies")
	}

	if none, _ := r.ListBySession(ctx, "missing"); len(none) != 0 {
		t.Errorf("missing session = %v, want empty", none)
	}
}
