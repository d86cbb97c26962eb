package repository

import (
	"context"
	"database/sql"

	"credential-orchestrator/internal/telemetry/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a login event repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save persists the event. It sets e.ID on success.
func (r *PostgresRepository) Save(ctx context.Context, e *domain.LoginEvent) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO login_events (session_id, event_type, phase, auth_method, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		e.SessionID, e.EventType, e.Phase, e.Method, e.Detail, e.CreatedAt).Scan(&e.ID)
}

// ListBySession returns the session's events in the order they were saved.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.LoginEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, event_type, phase, auth_method, detail, created_at
		 FROM login_events WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.LoginEvent
	for rows.Next() {
		var e domain.LoginEvent
		if err := rows.Scan(&e.ID, &e.SessionID, &e.EventType, &e.Phase, &e.Method, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
