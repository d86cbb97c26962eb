// Package login runs one login attempt as a serialized state machine. A
// session resolves a saved credential, a platform hint or manual input into
// an authenticated user, handing off to federated providers where needed,
// and saves the resulting credential for reuse.
package login

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"credential-orchestrator/internal/credential/store"
	identitydomain "credential-orchestrator/internal/identity/domain"
	"credential-orchestrator/internal/idp"
	"credential-orchestrator/internal/telemetry"
	teldomain "credential-orchestrator/internal/telemetry/domain"
	userdomain "credential-orchestrator/internal/user/domain"
	"credential-orchestrator/internal/worker"
)

// DuplicateSavingProvider is a credential manager that saves its own copy
// of credentials entered through it. Updates and new password accounts are
// not sent to it.
const DuplicateSavingProvider = "com.agilebits.onepassword"

const meterName = "credential-orchestrator/login"

// Outcome attribute values of the login.outcomes counter.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeAuthFailed    = "auth_failed"
	OutcomeFaulted       = "faulted"
)

// Users queries and authenticates accounts. Methods block on the backend and
// return an error only when the wait was interrupted.
type Users interface {
	GetCurrentUser() *userdomain.User
	FindExistingAccount(ctx context.Context, email string) (identitydomain.MethodSet, error)
	CreatePasswordAccount(ctx context.Context, email, password string) (bool, error)
	AuthWithPassword(ctx context.Context, email, password string) (bool, error)
	AuthWithIDToken(ctx context.Context, idToken string) (bool, error)
}

// federatedAttempt is the provider hand-off awaiting HandleFederatedResult.
type federatedAttempt struct {
	provider      idp.Provider
	loginHint     string
	skipDuplicate bool
}

// Session is one login attempt. Every entry point is dispatched onto the
// worker pool and handlers run one at a time.
type Session struct {
	id          string
	users       Users
	credentials store.Store
	registry    *idp.Registry
	nav         Navigator
	pool        *worker.Pool
	events      telemetry.EventEmitter
	outcomes    metric.Int64Counter

	started atomic.Bool
	phase   atomic.Int32

	// mu serializes handlers; pending is only touched while it is held.
	mu      sync.Mutex
	pending *federatedAttempt
	// err is written once before done is closed.
	err error

	done     chan struct{}
	doneOnce sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithEventEmitter sets where login events are emitted.
func WithEventEmitter(e telemetry.EventEmitter) Option {
	return func(s *Session) { s.events = e }
}

// WithMeter sets the meter the login.outcomes counter is created on.
func WithMeter(m metric.Meter) Option {
	return func(s *Session) { s.outcomes = newOutcomeCounter(m) }
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// NewSession returns a session that has not started. credentials may be nil
// when no credential manager is installed.
func NewSession(users Users, credentials store.Store, registry *idp.Registry, nav Navigator, pool *worker.Pool, opts ...Option) *Session {
	if credentials == nil {
		credentials = store.Unavailable{}
	}
	s := &Session{
		id:          uuid.NewString(),
		users:       users,
		credentials: credentials,
		registry:    registry,
		nav:         nav,
		pool:        pool,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.outcomes == nil {
		s.outcomes = newOutcomeCounter(otel.Meter(meterName))
	}
	return s
}

func newOutcomeCounter(m metric.Meter) metric.Int64Counter {
	c, err := m.Int64Counter("login.outcomes",
		metric.WithDescription("Login session outcomes"),
		metric.WithUnit("{session}"))
	if err != nil {
		log.Printf("login: create outcomes counter: %v", err)
		return noop.Int64Counter{}
	}
	return c
}

// ID returns the session id used in logs and events.
func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return Phase(s.phase.Load()) }

// Done is closed when the session completes or faults.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the fault that aborted the session. It is nil until Done is
// closed, and nil after a successful login.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Start begins the login attempt. Only the first call has any effect. If the
// worker pool rejects the attempt, the session faults.
func (s *Session) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}
	s.emit(teldomain.EventLoginStarted, "", "")
	if err := s.dispatch(s.start); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.fault(context.Background(), err)
		return err
	}
	return nil
}

// SignIn submits manually entered input. password may be empty.
func (s *Session) SignIn(email, password string) error {
	return s.dispatch(func(ctx context.Context) error {
		return s.signIn(ctx, email, password)
	})
}

// HandleFederatedResult resumes the session after a provider hand-off with
// the ID token the provider issued, or the error that ended the hand-off.
func (s *Session) HandleFederatedResult(idToken string, err error) error {
	return s.dispatch(func(ctx context.Context) error {
		return s.federatedResult(ctx, idToken, err)
	})
}

func (s *Session) dispatch(fn func(ctx context.Context) error) error {
	return s.pool.Submit(func(ctx context.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.Phase().Terminal() {
			return
		}
		if err := fn(ctx); err != nil {
			s.fault(ctx, err)
		}
	})
}

func (s *Session) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

func (s *Session) complete(ctx context.Context) {
	s.setPhase(PhaseComplete)
	log.Printf("login: session %s authenticated", s.id)
	s.emit(teldomain.EventLoginCompleted, "", "")
	s.record(ctx, OutcomeAuthenticated)
	s.nav.AuthComplete()
	s.finish()
}

func (s *Session) fault(ctx context.Context, err error) {
	s.setPhase(PhaseFaulted)
	s.err = err
	log.Printf("login: session %s faulted: %v", s.id, err)
	s.emit(teldomain.EventLoginFaulted, "", err.Error())
	s.record(context.WithoutCancel(ctx), OutcomeFaulted)
	s.nav.Fault(err)
	s.finish()
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Session) authFailed(ctx context.Context, method identitydomain.AuthenticationMethod, detail string) {
	log.Printf("login: session %s: %s", s.id, detail)
	s.emit(teldomain.EventAuthFailed, method, detail)
	s.record(ctx, OutcomeAuthFailed)
}

func (s *Session) record(ctx context.Context, outcome string) {
	s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (s *Session) emit(eventType string, method identitydomain.AuthenticationMethod, detail string) {
	telemetry.EmitAsync(s.events, &teldomain.LoginEvent{
		SessionID: s.id,
		EventType: eventType,
		Phase:     s.Phase().String(),
		Method:    string(method),
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
}

// isStoreMiss reports whether err only means no credential manager is installed.
func isStoreMiss(err error) bool {
	return err == nil || errors.Is(err, store.ErrUnavailable)
}
