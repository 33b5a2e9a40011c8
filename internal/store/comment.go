package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
)

// CommentStore persists task comments.
type CommentStore interface {
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID returns a non-deleted comment or ErrCommentNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)

	UpdateContent(ctx context.Context, comment *domain.Comment) error

	// SoftDelete flags the comment as deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// ListByTask returns the non-deleted comments of a task, oldest first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error)

	WithTx(tx *sql.Tx) CommentStore
}
