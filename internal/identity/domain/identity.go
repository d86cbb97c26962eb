package domain

import (
	"sort"
	"time"
)

// AuthenticationMethod identifies how a user authenticates: a password
// account or a federated identity provider keyed by its URL.
type AuthenticationMethod string

const (
	AuthMethodEmail    AuthenticationMethod = "openyolo://email"
	AuthMethodUserName AuthenticationMethod = "openyolo://username"
	AuthMethodGoogle   AuthenticationMethod = "https://accounts.google.com"
)

// IsEmailEquivalent reports whether m authenticates with an identifier and
// password. Some credential providers save password credentials under the
// username method, so it is accepted alongside email.
func (m AuthenticationMethod) IsEmailEquivalent() bool {
	return m == AuthMethodEmail || m == AuthMethodUserName
}

// MethodSet is a set of authentication methods registered for one account.
type MethodSet map[AuthenticationMethod]struct{}

// NewMethodSet returns a set holding the given methods.
func NewMethodSet(methods ...AuthenticationMethod) MethodSet {
	s := make(MethodSet, len(methods))
	for _, m := range methods {
		s[m] = struct{}{}
	}
	return s
}

func (s MethodSet) Add(m AuthenticationMethod) { s[m] = struct{}{} }

func (s MethodSet) Contains(m AuthenticationMethod) bool {
	_, ok := s[m]
	return ok
}

// Empty reports whether no method is registered; an empty set means no account exists.
func (s MethodSet) Empty() bool { return len(s) == 0 }

// Sorted returns the methods in ascending order.
func (s MethodSet) Sorted() []AuthenticationMethod {
	out := make([]AuthenticationMethod, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Identity links a user to one way of signing in (password or federated issuer).
type Identity struct {
	ID           string
	UserID       string
	ProviderID   string // "password", "google.com", or a federated issuer URL
	Subject      string // email for password identities, token subject otherwise
	PasswordHash string // empty unless ProviderID is ProviderPassword
	CreatedAt    time.Time
}

// Backend provider ids stored on identities.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
)
