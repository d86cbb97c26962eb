package service

import (
	"context"

	userdomain "credential-orchestrator/internal/user/domain"
	"credential-orchestrator/internal/task"
)

// Backend is the identity backend the client fronts. Each account call
// returns a single-completion operation; UsersClient bounds every wait.
type Backend interface {
	// CurrentUser returns the signed-in user, or nil.
	CurrentUser() *userdomain.User
	// FetchProvidersForEmail reports the provider ids ("password", "google.com",
	// or a federated issuer) linked to the account for email. No account yields none.
	FetchProvidersForEmail(ctx context.Context, email string) task.Operation[[]string]
	CreateUserWithPassword(ctx context.Context, email, password string) task.Operation[*userdomain.User]
	SignInWithPassword(ctx context.Context, email, password string) task.Operation[*userdomain.User]
	// SignInWithCustomToken redeems a token minted by the token service.
	SignInWithCustomToken(ctx context.Context, token string) task.Operation[*userdomain.User]
	SignOut()
}
