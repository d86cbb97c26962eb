package idp

import (
	"errors"
	"testing"

	identitydomain "credential-orchestrator/internal/identity/domain"
)

func TestRegistry_ByAuthMethod(t *testing.T) {
	r := NewDefaultRegistry()
	p, ok := r.ByAuthMethod(identitydomain.AuthMethodGoogle)
	if !ok {
		t.Fatal("Google not found by auth method")
	}
	if p.Issuer != "https://accounts.google.com" {
		t.Errorf("Issuer = %q, want Google issuer", p.Issuer)
	}
	if _, ok := r.ByAuthMethod(identitydomain.AuthMethodEmail); ok {
		t.Error("email method must not resolve to a federated provider")
	}
}

func TestRegistry_ByIssuer(t *testing.T) {
	r := NewDefaultRegistry()
	p, ok := r.ByIssuer(Ping.Issuer)
	if !ok {
		t.Fatal("Ping not found by issuer")
	}
	if p.AuthMethod != Ping.AuthMethod {
		t.Errorf("AuthMethod = %q, want %q", p.AuthMethod, Ping.AuthMethod)
	}
	if _, ok := r.ByIssuer("https://unknown.example.com"); ok {
		t.Error("unknown issuer resolved to a provider")
	}
}

func TestRegistry_ByEmailDomain(t *testing.T) {
	r := NewDefaultRegistry()
	tests := []struct {
		email  string
		want   string
		wantOK bool
	}{
		{"bob@gmail.com", Google.Issuer, true},
		{"alice@google.com", Google.Issuer, true},
		{"carol@GMAIL.com", Google.Issuer, true},
		{"dave@srsbsns.com", Ping.Issuer, true},
		{"erin@example.com", "", false},
		{"no-at-sign", "", false},
		{"two@at@gmail.com", "", false},
		{"trailing@", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			p, ok := r.ByEmailDomain(tt.email)
			if ok != tt.wantOK {
				t.Fatalf("ByEmailDomain(%q) ok = %v, want %v", tt.email, ok, tt.wantOK)
			}
			if ok && p.Issuer != tt.want {
				t.Errorf("ByEmailDomain(%q) issuer = %q, want %q", tt.email, p.Issuer, tt.want)
			}
		})
	}
}

func TestRegistry_SharedDomainFirstRegisteredWins(t *testing.T) {
	a := Provider{AuthMethod: "https://a.example", Issuer: "https://a.example", KnownDomains: []string{"shared.com"}}
	b := Provider{AuthMethod: "https://b.example", Issuer: "https://b.example", KnownDomains: []string{"shared.com"}}
	r, err := NewRegistry(a, b)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	p, ok := r.ByEmailDomain("x@shared.com")
	if !ok || p.Issuer != a.Issuer {
		t.Errorf("ByEmailDomain = %q, %v; want first registered %q", p.Issuer, ok, a.Issuer)
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	if _, err := NewRegistry(Provider{Issuer: "https://x"}); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("missing auth method: err = %v, want ErrInvalidProvider", err)
	}
	if _, err := NewRegistry(Provider{AuthMethod: "https://x"}); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("missing issuer: err = %v, want ErrInvalidProvider", err)
	}
	dup := Google
	dup.Issuer = "https://other"
	if _, err := NewRegistry(Google, dup); !errors.Is(err, ErrDuplicateProvider) {
		t.Errorf("duplicate method: err = %v, want ErrDuplicateProvider", err)
	}
}

func TestRegistry_TokenProviders(t *testing.T) {
	tp := NewDefaultRegistry().TokenProviders()
	if got := tp[Google.Issuer]; got != Google.ServerClientID {
		t.Errorf("Google token client = %q, want server client id", got)
	}
	if got := tp[Ping.Issuer]; got != Ping.ClientID {
		t.Errorf("Ping token client = %q, want client id", got)
	}
}

func TestLoginHintRemapping(t *testing.T) {
	if got := Ping.RemapLoginHint("alice@example.com"); got != "alice" {
		t.Errorf("Ping remap = %q, want %q", got, "alice")
	}
	if got := Google.RemapLoginHint("alice@example.com"); got != "alice@example.com" {
		t.Errorf("Google remap = %q, want unchanged", got)
	}
}
