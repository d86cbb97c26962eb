package directory

import (
	"context"
	"errors"
	"sync"

	identitydomain "credential-orchestrator/internal/identity/domain"
	identityrepo "credential-orchestrator/internal/identity/repository"
	userdomain "credential-orchestrator/internal/user/domain"
	userrepo "credential-orchestrator/internal/user/repository"
)

var errLinkFailed = errors.New("identity store unavailable")

// disabledUsers reports one user as disabled.
type disabledUsers struct {
	userrepo.Repository
	id string
}

func (r *disabledUsers) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	u, err := r.Repository.GetByID(ctx, id)
	if u != nil && u.ID == r.id {
		u.Status = userdomain.UserStatusDisabled
	}
	return u, err
}

// failingIdentities rejects Create while fail is set.
type failingIdentities struct {
	identityrepo.Repository
	mu   sync.Mutex
	fail bool
}

func (r *failingIdentities) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

func (r *failingIdentities) Create(ctx context.Context, i *identitydomain.Identity) error {
	r.mu.Lock()
	fail := r.fail
	r.mu.Unlock()
	if fail {
		return errLinkFailed
	}
	return r.Repository.Create(ctx, i)
}
