package repository

import (
	"context"

	"senya-web-backend/internal/loginattempt/domain"
)

// Repository defines persistence for login attempts.
type Repository interface {
	Create(ctx context.Context, a *domain.Attempt) error
	ListByUsername(ctx context.Context, username string, limit int32) ([]*domain.Attempt, error)
}
