package repository

import (
	"context"
	"database/sql"

	"senya-web-backend/internal/loginattempt/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a login attempt repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the login attempt.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Attempt) error {
	detail := sql.NullString{String: a.Detail, Valid: a.Detail != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_attempt (id, username, succeeded, ip_address, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Username, a.Succeeded, a.IPAddress, detail, a.CreatedAt,
	)
	return err
}

// ListByUsername returns the most recent attempts for username, newest first.
func (r *PostgresRepository) ListByUsername(ctx context.Context, username string, limit int32) ([]*domain.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, succeeded, ip_address, detail, created_at
		FROM login_attempt
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		username, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		var detail sql.NullString
		if err := rows.Scan(&a.ID, &a.Username, &a.Succeeded, &a.IPAddress, &detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		if detail.Valid {
			a.Detail = detail.String
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
