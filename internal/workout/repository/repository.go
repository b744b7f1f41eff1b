package repository

import (
	"context"

	"senya-web-backend/internal/workout/domain"
)

// Repository defines persistence for workouts. All operations are
// owner-scoped; another user's workout is treated as absent.
type Repository interface {
	Create(ctx context.Context, w *domain.Workout) error
	GetByID(ctx context.Context, id int64, userID string) (*domain.Workout, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Workout, error)
	Delete(ctx context.Context, id int64, userID string) error
}
