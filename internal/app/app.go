// Package app assembles the login orchestrator from configuration: the
// account directory, the credential store, the backend client, the worker
// pool and telemetry.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"credential-orchestrator/internal/config"
	"credential-orchestrator/internal/credential/store"
	"credential-orchestrator/internal/db"
	"credential-orchestrator/internal/directory"
	identityrepo "credential-orchestrator/internal/identity/repository"
	"credential-orchestrator/internal/identity/service"
	"credential-orchestrator/internal/idp"
	"credential-orchestrator/internal/login"
	"credential-orchestrator/internal/security"
	"credential-orchestrator/internal/telemetry"
	"credential-orchestrator/internal/telemetry/otel"
	telemetryrepo "credential-orchestrator/internal/telemetry/repository"
	userrepo "credential-orchestrator/internal/user/repository"
	"credential-orchestrator/internal/worker"
)

// customTokenTTL bounds custom tokens minted by the seed tool.
const customTokenTTL = time.Hour

// App holds the wired components. Close releases them.
type App struct {
	Config      *config.Config
	Registry    *idp.Registry
	Tokens      *security.TokenProvider // nil when CUSTOM_TOKEN_PUBLIC_KEY is unset
	Directory   *directory.Directory
	Users       *service.UsersClient
	Credentials store.Store
	Pool        *worker.Pool
	Telemetry   *otel.Providers
	Events      telemetry.EventEmitter
	Journal     telemetryrepo.Repository

	closers []func() error
}

// New builds every component from cfg. Postgres and Redis are used when
// DATABASE_URL and REDIS_ADDR are set, in-memory implementations otherwise.
// Login events go to the OTel log pipeline and to the event journal.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is nil")
	}
	a := &App{Config: cfg, Registry: idp.NewDefaultRegistry()}

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, otel.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return nil, fmt.Errorf("app: telemetry: %w", err)
	}
	providers.SetGlobal()
	a.Telemetry = providers

	if err := a.initDirectory(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Events = telemetry.MultiEmitter(otel.NewEventEmitter(providers.LoggerProvider), telemetry.NewJournal(a.Journal))
	if err := a.initCredentials(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Users = service.NewUsersClient(a.Directory, a.Registry, cfg.TokenServiceURL)
	a.Pool = worker.NewPool(cfg.WorkerIdleTimeoutDuration())
	return a, nil
}

func (a *App) initDirectory(ctx context.Context) error {
	cfg := a.Config
	if cfg.CustomTokenPublicKey != "" {
		tokens, err := security.NewTokenProviderFromPEM(cfg.CustomTokenPrivateKey, cfg.CustomTokenPublicKey,
			cfg.CustomTokenIssuer, cfg.CustomTokenAudience, customTokenTTL)
		if err != nil {
			return fmt.Errorf("app: custom token keys: %w", err)
		}
		a.Tokens = tokens
	} else {
		log.Printf("app: CUSTOM_TOKEN_PUBLIC_KEY not set; federated sign-in cannot be redeemed")
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	if cfg.DatabaseURL == "" {
		log.Printf("app: DATABASE_URL not set; using in-memory account directory")
		a.Directory = directory.NewMemory(hasher, a.Tokens)
		a.Journal = telemetryrepo.NewMemoryRepository()
		return nil
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.closers = append(a.closers, conn.Close)
	a.Directory = newPostgresDirectory(conn, hasher, a.Tokens)
	a.Journal = telemetryrepo.NewPostgresRepository(conn)
	return nil
}

func newPostgresDirectory(conn *sql.DB, hasher *security.Hasher, tokens *security.TokenProvider) *directory.Directory {
	return directory.New(userrepo.NewPostgresRepository(conn), identityrepo.NewPostgresRepository(conn), hasher, tokens)
}

func (a *App) initCredentials(ctx context.Context) error {
	cfg := a.Config
	if !cfg.RedisEnabled() {
		a.Credentials = store.NewMemoryStore(cfg.CredentialProvider)
		return nil
	}
	sealer, err := store.NewSealer(cfg.CredentialSealKey)
	if err != nil {
		return fmt.Errorf("app: credential seal key: %w", err)
	}
	rs, err := store.NewRedis(ctx, store.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.CredentialKeyPrefix,
	}, sealer, cfg.CredentialProvider)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.closers = append(a.closers, rs.Close)
	a.Credentials = rs
	return nil
}

// NewSession returns an unstarted login session presented through nav.
func (a *App) NewSession(nav login.Navigator) *login.Session {
	return login.NewSession(a.Users, a.Credentials, a.Registry, nav, a.Pool, login.WithEventEmitter(a.Events))
}

// Close stops the worker pool, closes stores and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	if a.Pool != nil {
		a.Pool.Shutdown()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
