package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"credential-orchestrator/internal/telemetry"
	"credential-orchestrator/internal/telemetry/domain"
)

const loggerName = "credential-orchestrator.login"

// Emitter is the subset of otellog.Logger used to emit login records.
type Emitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends login events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(loggerName))
}

// NewEventEmitterWithLogger returns an EventEmitter writing to logger.
func NewEventEmitterWithLogger(logger Emitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.LoginEvent) error { return nil }

type otelEmitter struct {
	logger Emitter
}

func (e *otelEmitter) Emit(ctx context.Context, event *domain.LoginEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetEventName(event.EventType)
	rec.SetSeverity(severityFor(event.EventType))
	if event.Detail != "" {
		rec.SetBody(otellog.StringValue(event.Detail))
	}
	for _, kv := range []struct{ key, value string }{
		{"session_id", event.SessionID},
		{"event_type", event.EventType},
		{"phase", event.Phase},
		{"auth_method", event.Method},
	} {
		if kv.value != "" {
			rec.AddAttributes(otellog.String(kv.key, kv.value))
		}
	}
	e.logger.Emit(ctx, rec)
	return nil
}

func severityFor(eventType string) otellog.Severity {
	switch eventType {
	case domain.EventLoginFaulted:
		return otellog.SeverityError
	case domain.EventAuthFailed:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}
