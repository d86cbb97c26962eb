// Package idp holds the federated identity provider registry and builds the
// OAuth authorization-code requests sent to those providers.
package idp

import (
	"strings"

	identitydomain "credential-orchestrator/internal/identity/domain"
)

// LoginHintRemapper transforms an email before it is sent to a provider as
// the OAuth login_hint. It must be a pure function.
type LoginHintRemapper func(loginHint string) string

// Provider configures one federated OAuth/OIDC issuer. Values are built once
// at startup and never mutated.
type Provider struct {
	AuthMethod            identitydomain.AuthenticationMethod
	Issuer                string
	AuthorizationEndpoint string
	TokenEndpoint         string
	ClientID              string
	// ServerClientID is the audience ID tokens are minted for when the
	// backend validates them. Optional.
	ServerClientID    string
	RedirectURI       string
	KnownDomains      []string
	LoginHintRemapper LoginHintRemapper
}

// RemapLoginHint applies the provider's remapper; without one the hint is unchanged.
func (p Provider) RemapLoginHint(loginHint string) string {
	if p.LoginHintRemapper == nil {
		return loginHint
	}
	return p.LoginHintRemapper(loginHint)
}

// TokenClientID returns the client id ID tokens for this provider should be
// requested for: the server client id when set, else the client id.
func (p Provider) TokenClientID() string {
	if p.ServerClientID != "" {
		return p.ServerClientID
	}
	return p.ClientID
}

// StripEmailDomain keeps only the local part of an email address.
func StripEmailDomain(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Google is the Google Sign-In provider.
var Google = Provider{
	AuthMethod:            identitydomain.AuthMethodGoogle,
	Issuer:                "https://accounts.google.com",
	AuthorizationEndpoint: "https://accounts.google.com/o/oauth2/v2/auth",
	TokenEndpoint:         "https://www.googleapis.com/oauth2/v4/token",
	ClientID:              "173065469067-85s1bkdaf60pusf6gs0iugnukba46m3s.apps.googleusercontent.com",
	ServerClientID:        "173065469067-b1f62os2f4q24lakjs79c5jn3k8610q8.apps.googleusercontent.com",
	RedirectURI:           "com.googleusercontent.apps.173065469067-85s1bkdaf60pusf6gs0iugnukba46m3s:/oauth2redirect",
	KnownDomains:          []string{"gmail.com", "google.com"},
}

// Ping is the example enterprise provider. Its users sign in with
// @srsbsns.com addresses and the provider expects only the local part as
// the login hint.
var Ping = Provider{
	AuthMethod:            identitydomain.AuthenticationMethod("https://srsbsns.com"),
	Issuer:                "https://token-provider-bc.ping-eng.com:9031",
	AuthorizationEndpoint: "https://token-provider-bc.ping-eng.com:9031/as/authorization.oauth2",
	TokenEndpoint:         "https://token-provider-bc.ping-eng.com:9031/as/token.oauth2",
	ClientID:              "expensive",
	RedirectURI:           "io.demoapp.expensive://oauth2redirect",
	KnownDomains:          []string{"srsbsns.com"},
	LoginHintRemapper:     StripEmailDomain,
}
