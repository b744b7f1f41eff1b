package repository

import (
	"context"
	"database/sql"
	"errors"

	"senya-web-backend/internal/workout/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a workout repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the workout and its exercises in one transaction and assigns
// the generated IDs.
func (r *PostgresRepository) Create(ctx context.Context, w *domain.Workout) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO workout (user_id, date, duration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		w.UserID, w.Date, w.Duration, w.CreatedAt, w.UpdatedAt,
	).Scan(&w.ID)
	if err != nil {
		return err
	}

	for i := range w.Exercises {
		e := &w.Exercises[i]
		e.WorkoutID = w.ID
		e.UserID = w.UserID
		raw := []byte(e.RepsAndWeights)
		if len(raw) == 0 {
			raw = nil
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO exercise (user_id, workout_id, name, reps_and_weights)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			e.UserID, e.WorkoutID, e.Name, raw,
		).Scan(&e.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns the workout with its exercises, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64, userID string) (*domain.Workout, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, duration, created_at, updated_at
		FROM workout WHERE id = $1 AND user_id = $2`, id, userID)
	var w domain.Workout
	var duration sql.NullInt64
	err := row.Scan(&w.ID, &w.UserID, &w.Date, &duration, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if duration.Valid {
		w.Duration = int(duration.Int64)
	}
	if err := r.loadExercises(ctx, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListByUser returns the user's workouts with exercises, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Workout, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, duration, created_at, updated_at
		FROM workout WHERE user_id = $1 ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Workout
	for rows.Next() {
		var w domain.Workout
		var duration sql.NullInt64
		if err := rows.Scan(&w.ID, &w.UserID, &w.Date, &duration, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		if duration.Valid {
			w.Duration = int(duration.Int64)
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, w := range out {
		if err := r.loadExercises(ctx, w); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete removes an owned workout; exercises go with it via FK cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id int64, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workout WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

func (r *PostgresRepository) loadExercises(ctx context.Context, w *domain.Workout) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, workout_id, name, reps_and_weights
		FROM exercise WHERE workout_id = $1 ORDER BY id`, w.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.Exercise
		var raw []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.WorkoutID, &e.Name, &raw); err != nil {
			return err
		}
		e.RepsAndWeights = raw
		w.Exercises = append(w.Exercises, e)
	}
	return rows.Err()
}
