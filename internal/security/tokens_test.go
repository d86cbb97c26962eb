package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidateCustom(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	token, exp, err := p.IssueCustom("sub-1", "bob@gmail.com", "https://accounts.google.com", "Bob")
	if err != nil {
		t.Fatalf("IssueCustom: %v", err)
	}
	if token == "" {
		t.Fatal("token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	claims, err := p.ValidateCustom(token)
	if err != nil {
		t.Fatalf("ValidateCustom: %v", err)
	}
	if claims.Subject != "sub-1" || claims.Email != "bob@gmail.com" || claims.Provider != "https://accounts.google.com" || claims.Name != "Bob" {
		t.Errorf("ValidateCustom: got %+v", claims)
	}
}

func TestTokenProvider_ValidateCustomInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.ValidateCustom("invalid-token"); err != ErrInvalidToken {
		t.Errorf("ValidateCustom invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ValidateCustomWrongAudience(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	other := NewTokenProvider(p.privateKey, p.publicKey, TestIssuer, "other-audience", time.Minute)
	token, _, err := other.IssueCustom("sub-1", "bob@gmail.com", "https://accounts.google.com", "")
	if err != nil {
		t.Fatalf("IssueCustom: %v", err)
	}
	if _, err := p.ValidateCustom(token); err != ErrInvalidToken {
		t.Errorf("ValidateCustom wrong audience: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ValidateCustomExpired(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	expired := NewTokenProvider(p.privateKey, p.publicKey, TestIssuer, TestAudience, -time.Minute)
	token, _, err := expired.IssueCustom("sub-1", "bob@gmail.com", "https://accounts.google.com", "")
	if err != nil {
		t.Fatalf("IssueCustom: %v", err)
	}
	if _, err := p.ValidateCustom(token); err != ErrInvalidToken {
		t.Errorf("ValidateCustom expired: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_IssueWithoutPrivateKey(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	verifyOnly := NewTokenProvider(nil, p.publicKey, TestIssuer, TestAudience, time.Minute)
	if _, _, err := verifyOnly.IssueCustom("s", "e@x.com", "p", ""); err != ErrSigningDisabled {
		t.Errorf("IssueCustom without key: want ErrSigningDisabled, got %v", err)
	}
}
