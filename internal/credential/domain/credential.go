// Package domain holds the credential and hint records exchanged with the
// platform credential store.
package domain

import (
	identitydomain "credential-orchestrator/internal/identity/domain"
)

// Credential is a usable identity assertion: an identifier, the method it
// authenticates with, and optionally a secret (password or ID token).
type Credential struct {
	Identifier  string                              `json:"identifier"`
	Method      identitydomain.AuthenticationMethod `json:"method"`
	Password    string                              `json:"password,omitempty"`
	IDToken     string                              `json:"id_token,omitempty"`
	DisplayName string                              `json:"display_name,omitempty"`
	PictureURI  string                              `json:"picture_uri,omitempty"`
}

// Hint is an identity suggested by the platform. It is never assumed to be
// authenticated.
type Hint struct {
	Identifier        string                              `json:"identifier"`
	Method            identitydomain.AuthenticationMethod `json:"method"`
	IDToken           string                              `json:"id_token,omitempty"`
	GeneratedPassword string                              `json:"generated_password,omitempty"`
	DisplayName       string                              `json:"display_name,omitempty"`
	PictureURI        string                              `json:"picture_uri,omitempty"`
}

// FromHint builds a credential carrying the hint's identity and profile only.
// Secrets are not copied; callers attach the one they authenticated with.
func FromHint(h Hint) Credential {
	return Credential{
		Identifier:  h.Identifier,
		Method:      h.Method,
		DisplayName: h.DisplayName,
		PictureURI:  h.PictureURI,
	}
}

// RetrieveRequest describes what the caller can authenticate with.
// TokenProviders maps a federated issuer to the client id ID tokens should be minted for.
type RetrieveRequest struct {
	SupportedMethods []identitydomain.AuthenticationMethod
	TokenProviders   map[string]string
}

// Supports reports whether m is one of the request's supported methods.
func (r RetrieveRequest) Supports(m identitydomain.AuthenticationMethod) bool {
	for _, s := range r.SupportedMethods {
		if s == m {
			return true
		}
		if s.IsEmailEquivalent() && m.IsEmailEquivalent() {
			return true
		}
	}
	return false
}

// SaveResult is the store's acknowledgement of a save.
type SaveResult string

const (
	SaveResultSaved    SaveResult = "saved"
	SaveResultRejected SaveResult = "rejected"
)
