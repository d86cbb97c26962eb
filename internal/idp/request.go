package idp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	identitydomain "credential-orchestrator/internal/identity/domain"
)

// ResponseTypeCode is the only OAuth response type requested.
const ResponseTypeCode = "code"

// Scopes requested from every provider.
var defaultScopes = []string{"openid", "email", "profile"}

// ErrNoIDToken is returned when a token response carries no id_token.
var ErrNoIDToken = errors.New("idp: token response has no id_token")

// AuthorizationRequest is one authorization-code request to a provider.
// State and CodeVerifier are generated per request; the verifier is kept to
// complete the PKCE exchange.
type AuthorizationRequest struct {
	AuthMethod            identitydomain.AuthenticationMethod
	Issuer                string
	AuthorizationEndpoint string
	TokenEndpoint         string
	ClientID              string
	ResponseType          string
	RedirectURI           string
	LoginHint             string
	Scopes                []string
	State                 string
	CodeVerifier          string
}

// BuildAuthorizationRequest returns an authorization-code request for p with
// the provider-remapped login hint and the openid, email and profile scopes.
func BuildAuthorizationRequest(p Provider, loginHint string) AuthorizationRequest {
	return AuthorizationRequest{
		AuthMethod:            p.AuthMethod,
		Issuer:                p.Issuer,
		AuthorizationEndpoint: p.AuthorizationEndpoint,
		TokenEndpoint:         p.TokenEndpoint,
		ClientID:              p.ClientID,
		ResponseType:          ResponseTypeCode,
		RedirectURI:           p.RedirectURI,
		LoginHint:             p.RemapLoginHint(loginHint),
		Scopes:                append([]string(nil), defaultScopes...),
		State:                 uuid.NewString(),
		CodeVerifier:          oauth2.GenerateVerifier(),
	}
}

// Config returns the oauth2 client configuration for the request. Providers
// are public clients, so credentials go in the request body.
func (r AuthorizationRequest) Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    r.ClientID,
		RedirectURL: r.RedirectURI,
		Scopes:      r.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   r.AuthorizationEndpoint,
			TokenURL:  r.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// URL returns the authorization URL the user agent is sent to.
func (r AuthorizationRequest) URL() string {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(r.CodeVerifier)}
	if r.LoginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", r.LoginHint))
	}
	return r.Config().AuthCodeURL(r.State, opts...)
}

// Exchange trades an authorization code for tokens at the provider's token
// endpoint and returns the ID token. httpClient may be nil.
func Exchange(ctx context.Context, r AuthorizationRequest, code string, httpClient *http.Client) (string, error) {
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	tok, err := r.Config().Exchange(ctx, code, oauth2.VerifierOption(r.CodeVerifier))
	if err != nil {
		return "", fmt.Errorf("idp: exchange code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", ErrNoIDToken
	}
	return idToken, nil
}
