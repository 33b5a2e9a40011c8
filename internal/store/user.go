package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
)

// UserStore reads users mirrored from the authentication service.
type UserStore interface {
	// GetByID returns the user or ErrUserNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
