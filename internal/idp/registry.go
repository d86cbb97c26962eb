package idp

import (
	"errors"
	"fmt"
	"strings"

	identitydomain "credential-orchestrator/internal/identity/domain"
)

var (
	// ErrInvalidProvider is returned when a provider lacks an auth method or issuer.
	ErrInvalidProvider = errors.New("idp: provider requires auth method and issuer")
	// ErrDuplicateProvider is returned when two providers share an auth method or issuer.
	ErrDuplicateProvider = errors.New("idp: duplicate provider")
)

// Registry indexes providers by auth method, by issuer, and by email domain.
// It is immutable after NewRegistry and safe for concurrent reads.
type Registry struct {
	providers []Provider // registration order
	domains   []map[string]struct{}
	byMethod  map[identitydomain.AuthenticationMethod]int
	byIssuer  map[string]int
}

// NewRegistry validates and indexes providers. Domain lookups return the
// first registered provider claiming a domain.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		providers: make([]Provider, 0, len(providers)),
		domains:   make([]map[string]struct{}, 0, len(providers)),
		byMethod:  make(map[identitydomain.AuthenticationMethod]int, len(providers)),
		byIssuer:  make(map[string]int, len(providers)),
	}
	for _, p := range providers {
		if p.AuthMethod == "" || p.Issuer == "" {
			return nil, ErrInvalidProvider
		}
		if _, ok := r.byMethod[p.AuthMethod]; ok {
			return nil, fmt.Errorf("%w: auth method %s", ErrDuplicateProvider, p.AuthMethod)
		}
		if _, ok := r.byIssuer[p.Issuer]; ok {
			return nil, fmt.Errorf("%w: issuer %s", ErrDuplicateProvider, p.Issuer)
		}
		p.KnownDomains = append([]string(nil), p.KnownDomains...)
		domains := make(map[string]struct{}, len(p.KnownDomains))
		for _, d := range p.KnownDomains {
			domains[strings.ToLower(d)] = struct{}{}
		}
		idx := len(r.providers)
		r.providers = append(r.providers, p)
		r.domains = append(r.domains, domains)
		r.byMethod[p.AuthMethod] = idx
		r.byIssuer[p.Issuer] = idx
	}
	return r, nil
}

// NewDefaultRegistry returns the registry of built-in providers (Google, Ping).
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(Google, Ping)
	if err != nil {
		panic(err)
	}
	return r
}

// ByAuthMethod returns the provider registered for m.
func (r *Registry) ByAuthMethod(m identitydomain.AuthenticationMethod) (Provider, bool) {
	idx, ok := r.byMethod[m]
	if !ok {
		return Provider{}, false
	}
	return r.providers[idx], true
}

// ByIssuer returns the provider whose issuer is exactly iss.
func (r *Registry) ByIssuer(iss string) (Provider, bool) {
	idx, ok := r.byIssuer[iss]
	if !ok {
		return Provider{}, false
	}
	return r.providers[idx], true
}

// ByEmailDomain returns the first provider claiming the domain of email.
// Emails without exactly one '@' match nothing.
func (r *Registry) ByEmailDomain(email string) (Provider, bool) {
	domain, ok := EmailDomain(email)
	if !ok {
		return Provider{}, false
	}
	for i, domains := range r.domains {
		if _, ok := domains[domain]; ok {
			return r.providers[i], true
		}
	}
	return Provider{}, false
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []Provider {
	return append([]Provider(nil), r.providers...)
}

// TokenProviders maps each provider's issuer to the client id its ID tokens
// should be minted for.
func (r *Registry) TokenProviders() map[string]string {
	out := make(map[string]string, len(r.providers))
	for _, p := range r.providers {
		out[p.Issuer] = p.TokenClientID()
	}
	return out
}

// EmailDomain returns the lower-cased substring after the single '@' in email.
func EmailDomain(email string) (string, bool) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	return strings.ToLower(parts[1]), true
}
