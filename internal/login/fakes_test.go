package login

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"credential-orchestrator/internal/credential/domain"
	"credential-orchestrator/internal/credential/store"
	identitydomain "credential-orchestrator/internal/identity/domain"
	"credential-orchestrator/internal/idp"
	userdomain "credential-orchestrator/internal/user/domain"
	"credential-orchestrator/internal/worker"
)

type fakeUsers struct {
	mu         sync.Mutex
	current    *userdomain.User
	accounts   map[string]identitydomain.MethodSet
	createOK   bool
	passwordOK bool
	idTokenOK  bool
	err        error
	calls      map[string]int
	passwords  []string
	idTokens   []string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{accounts: map[string]identitydomain.MethodSet{}, calls: map[string]int{}}
}

func (u *fakeUsers) count(name string) {
	u.mu.Lock()
	u.calls[name]++
	u.mu.Unlock()
}

func (u *fakeUsers) Calls(name string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[name]
}

func (u *fakeUsers) Secrets() (passwords, idTokens []string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.passwords...), append([]string(nil), u.idTokens...)
}

func (u *fakeUsers) GetCurrentUser() *userdomain.User {
	u.count("GetCurrentUser")
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.current
}

func (u *fakeUsers) FindExistingAccount(_ context.Context, email string) (identitydomain.MethodSet, error) {
	u.count("FindExistingAccount")
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return identitydomain.MethodSet{}, u.err
	}
	return u.accounts[email], nil
}

func (u *fakeUsers) CreatePasswordAccount(_ context.Context, _, password string) (bool, error) {
	u.count("CreatePasswordAccount")
	u.mu.Lock()
	defer u.mu.Unlock()
	u.passwords = append(u.passwords, password)
	return u.createOK, u.err
}

func (u *fakeUsers) AuthWithPassword(_ context.Context, _, password string) (bool, error) {
	u.count("AuthWithPassword")
	u.mu.Lock()
	defer u.mu.Unlock()
	u.passwords = append(u.passwords, password)
	return u.passwordOK, u.err
}

func (u *fakeUsers) AuthWithIDToken(_ context.Context, idToken string) (bool, error) {
	u.count("AuthWithIDToken")
	u.mu.Lock()
	defer u.mu.Unlock()
	u.idTokens = append(u.idTokens, idToken)
	return u.idTokenOK, u.err
}

type fakeStore struct {
	mu        sync.Mutex
	provider  string
	cred      *domain.Credential
	hint      *domain.Hint
	saveErr   error
	retrieves int
	hints     int
	saved     []domain.Credential
}

func (s *fakeStore) Retrieve(context.Context, domain.RetrieveRequest) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retrieves++
	return s.cred, nil
}

func (s *fakeStore) RequestHint(context.Context, domain.RetrieveRequest) (*domain.Hint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints++
	return s.hint, nil
}

func (s *fakeStore) Save(_ context.Context, c domain.Credential) (domain.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, c)
	if s.saveErr != nil {
		return "", s.saveErr
	}
	return domain.SaveResultSaved, nil
}

func (s *fakeStore) ProviderName() string { return s.provider }

func (s *fakeStore) Saved() []domain.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Credential(nil), s.saved...)
}

func (s *fakeStore) Counts() (retrieves, hints int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrieves, s.hints
}

type navEvent struct {
	kind string // "form", "federated", "complete", "fault"
	form Form
	req  idp.AuthorizationRequest
	err  error
}

type recordingNavigator struct {
	events chan navEvent
}

func newRecordingNavigator() *recordingNavigator {
	return &recordingNavigator{events: make(chan navEvent, 64)}
}

func (n *recordingNavigator) ShowLoading() {}
func (n *recordingNavigator) ShowForm(f Form) { n.events <- navEvent{kind: "form", form: f} }
func (n *recordingNavigator) AuthComplete() { n.events <- navEvent{kind: "complete"} }
func (n *recordingNavigator) Fault(err error) { n.events <- navEvent{kind: "fault", err: err} }
func (n *recordingNavigator) StartFederatedAuth(req idp.AuthorizationRequest) {
	n.events <- navEvent{kind: "federated", req: req}
}

func (n *recordingNavigator) next(t *testing.T) navEvent {
	t.Helper()
	select {
	case ev := <-n.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for navigator event")
		return navEvent{}
	}
}

func (n *recordingNavigator) expect(t *testing.T, kind string) navEvent {
	t.Helper()
	ev := n.next(t)
	if ev.kind != kind {
		t.Fatalf("navigator event = %q (%+v), want %q", ev.kind, ev, kind)
	}
	return ev
}

func (n *recordingNavigator) expectNone(t *testing.T) {
	t.Helper()
	select {
	case ev := <-n.events:
		t.Fatalf("unexpected navigator event %q (%+v)", ev.kind, ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestSession(t *testing.T, users Users, st store.Store, opts ...Option) (*Session, *recordingNavigator) {
	t.Helper()
	pool := worker.NewPool(time.Second)
	t.Cleanup(pool.Shutdown)
	nav := newRecordingNavigator()
	opts = append([]Option{WithMeter(noop.NewMeterProvider().Meter("test"))}, opts...)
	return NewSession(users, st, idp.NewDefaultRegistry(), nav, pool, opts...), nav
}

func startAtEmailForm(t *testing.T, s *Session, nav *recordingNavigator) {
	t.Helper()
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ev := nav.expect(t, "form")
	if ev.form.Prompt != PromptEnterEmail {
		t.Fatalf("first prompt = %q, want %q", ev.form.Prompt, PromptEnterEmail)
	}
}
