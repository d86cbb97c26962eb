// seed creates a demo password account and offers it as a credential hint.
// Idempotent: the account is skipped when demo@example.com already exists.
// With CUSTOM_TOKEN_PRIVATE_KEY set, a demo Google identity is also linked.
package main

import (
	"context"
	"log"
	"time"

	"credential-orchestrator/internal/app"
	"credential-orchestrator/internal/config"
	"credential-orchestrator/internal/credential/domain"
	"credential-orchestrator/internal/credential/store"
	identitydomain "credential-orchestrator/internal/identity/domain"
	"credential-orchestrator/internal/idp"
	"credential-orchestrator/internal/task"
)

const (
	demoEmail       = "demo@example.com"
	demoPassword    = "password123"
	demoName        = "Demo User"
	demoGoogleEmail = "demo.user@gmail.com"
	demoGoogleSub   = "demo-google-subject"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; seeding the in-memory directory has no effect")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	defer func() { _ = a.Close(context.Background()) }()

	if err := seed(ctx, a); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func seed(ctx context.Context, a *app.App) error {
	providers, err := task.Await(ctx, task.DefaultTimeout, a.Directory.FetchProvidersForEmail(ctx, demoEmail))
	if err != nil {
		return err
	}
	if len(providers) > 0 {
		log.Printf("seed: %s already exists; skipping account", demoEmail)
	} else {
		if _, err := task.Await(ctx, task.DefaultTimeout, a.Directory.CreateUserWithPassword(ctx, demoEmail, demoPassword)); err != nil {
			return err
		}
		log.Printf("seed: created %s", demoEmail)
	}
	a.Directory.SignOut()

	if hints, ok := a.Credentials.(store.HintWriter); ok && a.Config.RedisEnabled() {
		if err := hints.AddHint(ctx, domain.Hint{
			Identifier:  demoEmail,
			Method:      identitydomain.AuthMethodEmail,
			DisplayName: demoName,
		}); err != nil {
			return err
		}
		log.Printf("seed: offered %s as a credential hint", demoEmail)
	} else {
		log.Printf("seed: REDIS_ADDR not set; skipping credential hint")
	}

	if a.Tokens == nil || a.Config.CustomTokenPrivateKey == "" {
		return nil
	}
	token, _, err := a.Tokens.IssueCustom(demoGoogleSub, demoGoogleEmail, idp.Google.Issuer, demoName)
	if err != nil {
		return err
	}
	if _, err := task.Await(ctx, task.DefaultTimeout, a.Directory.SignInWithCustomToken(ctx, token)); err != nil {
		return err
	}
	a.Directory.SignOut()
	log.Printf("seed: linked Google identity for %s", demoGoogleEmail)
	return nil
}
