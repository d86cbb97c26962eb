// Package directory is an in-process identity backend. It keeps accounts and
// their linked sign-in identities in the user and identity repositories and
// serves the primitives the backend client wraps.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	identitydomain "credential-orchestrator/internal/identity/domain"
	identityrepo "credential-orchestrator/internal/identity/repository"
	"credential-orchestrator/internal/idp"
	"credential-orchestrator/internal/security"
	"credential-orchestrator/internal/task"
	userdomain "credential-orchestrator/internal/user/domain"
	userrepo "credential-orchestrator/internal/user/repository"
)

var (
	// ErrAccountExists is returned when creating a password account for a registered email.
	ErrAccountExists = errors.New("directory: account already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
	// ErrAccountDisabled is returned when signing in to a disabled account.
	ErrAccountDisabled = errors.New("directory: account disabled")
	// ErrTokensDisabled is returned by SignInWithCustomToken when no token verifier is configured.
	ErrTokensDisabled = errors.New("directory: custom tokens not configured")
)

// Directory implements the identity backend over the account repositories.
// Async primitives run on their own goroutine; a successful sign-in replaces
// the current user.
type Directory struct {
	users      userrepo.Repository
	identities identityrepo.Repository
	hasher     *security.Hasher
	tokens     *security.TokenProvider

	mu      sync.RWMutex
	current *userdomain.User

	nowF func() time.Time
}

// New returns a Directory. tokens may be nil, in which case custom-token sign-in always fails.
func New(users userrepo.Repository, identities identityrepo.Repository, hasher *security.Hasher, tokens *security.TokenProvider) *Directory {
	if hasher == nil {
		hasher = security.NewHasher(0)
	}
	return &Directory{
		users:      users,
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// NewMemory returns a Directory backed by in-memory repositories.
func NewMemory(hasher *security.Hasher, tokens *security.TokenProvider) *Directory {
	return New(userrepo.NewMemoryRepository(), identityrepo.NewMemoryRepository(), hasher, tokens)
}

// ProviderIDForIssuer returns the provider id identities from iss are stored under.
func ProviderIDForIssuer(iss string) string {
	if iss == idp.Google.Issuer {
		return identitydomain.ProviderGoogle
	}
	return iss
}

// CurrentUser returns the signed-in user, or nil.
func (d *Directory) CurrentUser() *userdomain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return nil
	}
	u := *d.current
	return &u
}

// SignOut clears the signed-in user.
func (d *Directory) SignOut() {
	d.mu.Lock()
	d.current = nil
	d.mu.Unlock()
}

func (d *Directory) setCurrent(u *userdomain.User) {
	d.mu.Lock()
	d.current = u
	d.mu.Unlock()
}

// FetchProvidersForEmail reports the provider ids linked to the account for email in link order.
func (d *Directory) FetchProvidersForEmail(ctx context.Context, email string) task.Operation[[]string] {
	return task.Go(func() ([]string, error) {
		return d.providersForEmail(ctx, email)
	})
}

func (d *Directory) providersForEmail(ctx context.Context, email string) ([]string, error) {
	u, err := d.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	ids, err := d.identities.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, i := range ids {
		if !seen[i.ProviderID] {
			seen[i.ProviderID] = true
			out = append(out, i.ProviderID)
		}
	}
	return out, nil
}

// CreateUserWithPassword registers a new password account and signs it in.
func (d *Directory) CreateUserWithPassword(ctx context.Context, email, password string) task.Operation[*userdomain.User] {
	return task.Go(func() (*userdomain.User, error) {
		u, err := d.createPasswordAccount(ctx, normalizeEmail(email), password)
		if err != nil {
			return nil, err
		}
		d.setCurrent(u)
		return u, nil
	})
}

func (d *Directory) createPasswordAccount(ctx context.Context, email, password string) (*userdomain.User, error) {
	existing, err := d.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}
	hash, err := d.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	return d.createLinkedUser(ctx, email, "", "", identitydomain.ProviderPassword, email, hash)
}

// SignInWithPassword verifies the password identity for email.
func (d *Directory) SignInWithPassword(ctx context.Context, email, password string) task.Operation[*userdomain.User] {
	return task.Go(func() (*userdomain.User, error) {
		u, err := d.verifyPassword(ctx, normalizeEmail(email), password)
		if err != nil {
			return nil, err
		}
		d.setCurrent(u)
		return u, nil
	})
}

func (d *Directory) verifyPassword(ctx context.Context, email, password string) (*userdomain.User, error) {
	ident, err := d.identities.GetByProviderSubject(ctx, identitydomain.ProviderPassword, email)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := d.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return d.activeUser(ctx, ident.UserID)
}

// SignInWithCustomToken redeems a token minted by the token service. The
// federated identity in the token is linked to the account for its email,
// creating the account on first use.
func (d *Directory) SignInWithCustomToken(ctx context.Context, token string) task.Operation[*userdomain.User] {
	return task.Go(func() (*userdomain.User, error) {
		u, err := d.redeem(ctx, token)
		if err != nil {
			return nil, err
		}
		d.setCurrent(u)
		return u, nil
	})
}

func (d *Directory) redeem(ctx context.Context, token string) (*userdomain.User, error) {
	if d.tokens == nil {
		return nil, ErrTokensDisabled
	}
	claims, err := d.tokens.ValidateCustom(token)
	if err != nil {
		return nil, err
	}
	if claims.Provider == "" {
		return nil, security.ErrInvalidToken
	}
	providerID := ProviderIDForIssuer(claims.Provider)

	ident, err := d.identities.GetByProviderSubject(ctx, providerID, claims.Subject)
	if err != nil {
		return nil, err
	}
	if ident != nil {
		return d.activeUser(ctx, ident.UserID)
	}

	email := normalizeEmail(claims.Email)
	u, err := d.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return d.createLinkedUser(ctx, email, claims.Name, claims.Picture, providerID, claims.Subject, "")
	}
	if u.Status == userdomain.UserStatusDisabled {
		return nil, ErrAccountDisabled
	}
	if err := d.link(ctx, u.ID, providerID, claims.Subject, ""); err != nil {
		return nil, err
	}
	return u, nil
}

func (d *Directory) activeUser(ctx context.Context, id string) (*userdomain.User, error) {
	u, err := d.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if u.Status == userdomain.UserStatusDisabled {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

func (d *Directory) createUser(ctx context.Context, email, name, picture string) (*userdomain.User, error) {
	now := d.nowF()
	u := &userdomain.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: name,
		PictureURI:  picture,
		Status:      userdomain.UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	if err := d.users.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	return u, nil
}

// createLinkedUser creates a user with its first identity. The user is
// removed again when the identity cannot be linked, so the email stays free.
func (d *Directory) createLinkedUser(ctx context.Context, email, name, picture, providerID, subject, hash string) (*userdomain.User, error) {
	u, err := d.createUser(ctx, email, name, picture)
	if err != nil {
		return nil, err
	}
	if err := d.link(ctx, u.ID, providerID, subject, hash); err != nil {
		if derr := d.users.Delete(context.WithoutCancel(ctx), u.ID); derr != nil {
			log.Printf("directory: remove unlinked user %s: %v", u.ID, derr)
		}
		return nil, err
	}
	return u, nil
}

func (d *Directory) link(ctx context.Context, userID, providerID, subject, hash string) error {
	return d.identities.Create(ctx, &identitydomain.Identity{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProviderID:   providerID,
		Subject:      subject,
		PasswordHash: hash,
		CreatedAt:    d.nowF(),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
