package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	identitydomain "credential-orchestrator/internal/identity/domain"
	"credential-orchestrator/internal/idp"
	"credential-orchestrator/internal/task"
	userdomain "credential-orchestrator/internal/user/domain"
)

// Sentinel errors for failures inside the client. They are logged and
// recorded on spans; callers only ever see false or an empty set.
var (
	ErrUnknownIssuer    = errors.New("identity: unknown token issuer")
	ErrBackendRejection = errors.New("identity: backend rejected request")
	ErrResponseParse    = errors.New("identity: unparsable backend response")
	ErrNoUser           = errors.New("identity: backend produced no user")
)

const tracerName = "credential-orchestrator/identity"

// UsersClient is the façade the login session uses to query and authenticate
// accounts. Every backend wait is bounded by the client timeout; timeouts,
// rejections and parse failures are indistinguishable to callers. The only
// error its methods return is task.ErrInterrupted.
type UsersClient struct {
	backend  Backend
	registry *idp.Registry
	timeout  time.Duration
	tracer   trace.Tracer

	newHTTPClient func() *http.Client
	tokens        func() *tokenGenerator
}

// Option configures a UsersClient.
type Option func(*UsersClient)

// WithTimeout overrides the bounded wait applied to backend calls.
func WithTimeout(d time.Duration) Option {
	return func(c *UsersClient) { c.timeout = d }
}

// WithHTTPClientFactory sets how the token service HTTP client is built on first use.
func WithHTTPClientFactory(f func() *http.Client) Option {
	return func(c *UsersClient) { c.newHTTPClient = f }
}

// WithTracer sets the tracer used for backend call spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *UsersClient) { c.tracer = t }
}

// NewUsersClient returns a client for backend that exchanges ID tokens at tokenServiceURL.
func NewUsersClient(backend Backend, registry *idp.Registry, tokenServiceURL string, opts ...Option) *UsersClient {
	c := &UsersClient{
		backend:  backend,
		registry: registry,
		timeout:  task.DefaultTimeout,
		newHTTPClient: func() *http.Client {
			return &http.Client{Timeout: task.DefaultTimeout}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	c.tokens = sync.OnceValue(func() *tokenGenerator {
		return &tokenGenerator{baseURL: tokenServiceURL, client: c.newHTTPClient()}
	})
	return c
}

// GetCurrentUser returns the signed-in user, or nil.
func (c *UsersClient) GetCurrentUser() *userdomain.User {
	return c.backend.CurrentUser()
}

// SignOut clears the backend's current user.
func (c *UsersClient) SignOut() {
	c.backend.SignOut()
}

// FindExistingAccount returns the authentication methods registered for email.
// Any failure yields an empty set.
func (c *UsersClient) FindExistingAccount(ctx context.Context, email string) (identitydomain.MethodSet, error) {
	ctx, span := c.tracer.Start(ctx, "identity.FindExistingAccount")
	defer span.End()

	methods := identitydomain.NewMethodSet()
	ids, err := task.Await(ctx, c.timeout, c.backend.FetchProvidersForEmail(ctx, email))
	if err != nil {
		return methods, c.fail(span, "find existing account", err)
	}
	for _, id := range ids {
		if m, ok := c.methodForProvider(id); ok {
			methods.Add(m)
		}
	}
	return methods, nil
}

// CreatePasswordAccount creates and signs in a password account.
func (c *UsersClient) CreatePasswordAccount(ctx context.Context, email, password string) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "identity.CreatePasswordAccount")
	defer span.End()
	return c.signIn(ctx, span, "create password account", c.backend.CreateUserWithPassword(ctx, email, password))
}

// AuthWithPassword signs in to an existing password account.
func (c *UsersClient) AuthWithPassword(ctx context.Context, email, password string) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "identity.AuthWithPassword")
	defer span.End()
	return c.signIn(ctx, span, "password auth", c.backend.SignInWithPassword(ctx, email, password))
}

// AuthWithIDToken exchanges a federated ID token for a custom token and signs
// in with it. Malformed tokens and unknown issuers fail before any network call.
func (c *UsersClient) AuthWithIDToken(ctx context.Context, idToken string) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "identity.AuthWithIDToken")
	defer span.End()

	issuer, err := idp.ExtractIssuer(idToken)
	if err != nil {
		return false, c.fail(span, "id token auth", err)
	}
	provider, ok := c.registry.ByIssuer(issuer)
	if !ok {
		return false, c.fail(span, "id token auth", ErrUnknownIssuer)
	}

	gen := c.tokens()
	customToken, err := task.Await(ctx, c.timeout, task.Go(func() (string, error) {
		return gen.generate(ctx, idToken, provider.Issuer)
	}))
	if err != nil {
		return false, c.fail(span, "token exchange", err)
	}
	return c.signIn(ctx, span, "custom token sign-in", c.backend.SignInWithCustomToken(ctx, customToken))
}

func (c *UsersClient) signIn(ctx context.Context, span trace.Span, what string, op task.Operation[*userdomain.User]) (bool, error) {
	u, err := task.Await(ctx, c.timeout, op)
	if err != nil {
		return false, c.fail(span, what, err)
	}
	if u == nil {
		return false, c.fail(span, what, ErrNoUser)
	}
	return true, nil
}

// fail records err and collapses it. Only an interrupted wait is returned.
func (c *UsersClient) fail(span trace.Span, what string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, what)
	if errors.Is(err, task.ErrInterrupted) {
		return err
	}
	log.Printf("identity: %s failed: %v", what, err)
	return nil
}

func (c *UsersClient) methodForProvider(id string) (identitydomain.AuthenticationMethod, bool) {
	switch id {
	case identitydomain.ProviderPassword:
		return identitydomain.AuthMethodEmail, true
	case identitydomain.ProviderGoogle:
		return identitydomain.AuthMethodGoogle, true
	}
	if p, ok := c.registry.ByIssuer(id); ok {
		return p.AuthMethod, true
	}
	return "", false
}
