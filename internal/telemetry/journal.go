package telemetry

import (
	"context"
	"errors"

	"credential-orchestrator/internal/telemetry/domain"
)

// EventSaver persists login events (see telemetry/repository).
type EventSaver interface {
	Save(ctx context.Context, e *domain.LoginEvent) error
}

// Journal is an EventEmitter that records every event through an EventSaver.
type Journal struct {
	saver EventSaver
}

// NewJournal returns an emitter that saves events to saver.
func NewJournal(saver EventSaver) *Journal {
	return &Journal{saver: saver}
}

// Emit saves a copy of event so the caller's value is not mutated.
func (j *Journal) Emit(ctx context.Context, event *domain.LoginEvent) error {
	if j == nil || j.saver == nil || event == nil {
		return nil
	}
	e := *event
	return j.saver.Save(ctx, &e)
}

type multiEmitter []EventEmitter

// MultiEmitter returns an emitter that forwards each event to every non-nil
// emitter and joins their errors.
func MultiEmitter(emitters ...EventEmitter) EventEmitter {
	var m multiEmitter
	for _, e := range emitters {
		if e != nil {
			m = append(m, e)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multiEmitter) Emit(ctx context.Context, event *domain.LoginEvent) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
