package domain

import "time"

// Login lifecycle event types.
const (
	EventLoginStarted     = "login.started"
	EventFederatedStarted = "login.federated_started"
	EventAuthFailed       = "login.auth_failed"
	EventCredentialSaved  = "login.credential_saved"
	EventLoginCompleted   = "login.completed"
	EventLoginFaulted     = "login.faulted"
)

// LoginEvent records one step of a login session. It never carries
// passwords or tokens.
type LoginEvent struct {
	// ID is assigned when the event is journaled.
	ID        int64
	SessionID string
	EventType string
	Phase     string
	// Method is the authentication method involved, if any.
	Method string
	// Detail is a short human-readable note (e.g. the failure reason).
	Detail    string
	CreatedAt time.Time
}
