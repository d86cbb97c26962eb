package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"credential-orchestrator/internal/identity/domain"
)

const uniqueViolation = "23505"

const selectIdentity = `SELECT id, user_id, provider_id, subject, password_hash, created_at FROM identities`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Identity, error) {
	rows, err := r.db.QueryContext(ctx, selectIdentity+` WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// GetByProviderSubject returns the identity, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByProviderSubject(ctx context.Context, providerID, subject string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, selectIdentity+` WHERE provider_id = $1 AND subject = $2`, providerID, subject)
	i, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return i, err
}

// Create persists the identity. The identity must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	ph := sql.NullString{String: i.PasswordHash, Valid: i.PasswordHash != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, user_id, provider_id, subject, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		i.ID, i.UserID, i.ProviderID, i.Subject, ph, i.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrIdentityExists
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(s scanner) (*domain.Identity, error) {
	var i domain.Identity
	var ph sql.NullString
	if err := s.Scan(&i.ID, &i.UserID, &i.ProviderID, &i.Subject, &ph, &i.CreatedAt); err != nil {
		return nil, err
	}
	if ph.Valid {
		i.PasswordHash = ph.String
	}
	return &i, nil
}
