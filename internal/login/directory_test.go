package login

import (
	"context"
	"testing"

	"credential-orchestrator/internal/credential/domain"
	"credential-orchestrator/internal/credential/store"
	"credential-orchestrator/internal/directory"
	identitydomain "credential-orchestrator/internal/identity/domain"
	"credential-orchestrator/internal/identity/service"
	"credential-orchestrator/internal/idp"
	"credential-orchestrator/internal/security"
)

func TestSession_DirectoryRoundTrip(t *testing.T) {
	dir := directory.NewMemory(security.NewHasher(4), nil)
	users := service.NewUsersClient(dir, idp.NewDefaultRegistry(), "http://127.0.0.1:0")
	creds := store.NewMemoryStore("credential-orchestrator")

	first, nav := newTestSession(t, users, creds)
	startAtEmailForm(t, first, nav)
	if err := first.SignIn("quinn@example.com", "open-sesame"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	nav.expect(t, "complete")
	if users.GetCurrentUser() == nil {
		t.Fatal("directory should have a signed-in user")
	}

	got, err := creds.Retrieve(context.Background(), domain.RetrieveRequest{
		SupportedMethods: []identitydomain.AuthenticationMethod{identitydomain.AuthMethodEmail},
	})
	if err != nil || got == nil || got.Identifier != "quinn@example.com" {
		t.Fatalf("saved credential = %+v, %v", got, err)
	}

	users.SignOut()
	second, nav2 := newTestSession(t, users, creds)
	if err := second.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	nav2.expect(t, "complete")
	if u := users.GetCurrentUser(); u == nil || u.Email != "quinn@example.com" {
		t.Errorf("current user = %+v", u)
	}
}
