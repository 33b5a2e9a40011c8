package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
)

// ActivityStore is the append-only audit log. It deliberately has no update
// or delete methods; rows disappear only when their task is purged.
type ActivityStore interface {
	// Append inserts activity rows.
	Append(ctx context.Context, activities ...*domain.Activity) error

	// ListByTask returns a task's activity newest first, at most limit rows.
	ListByTask(ctx context.Context, taskID uuid.UUID, limit int) ([]*domain.Activity, error)

	// WithTx returns an ActivityStore bound to tx.
	WithTx(tx *sql.Tx) ActivityStore
}
