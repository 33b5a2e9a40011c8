package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
)

// TaskStore persists tasks and their label assignments.
// Read methods never return soft-deleted tasks unless stated otherwise.
type TaskStore interface {
	// Create inserts a new task together with its label assignments.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns a non-deleted task with its labels populated.
	// Returns ErrTaskNotFound if the task is missing or soft-deleted.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetByIDForUpdate is GetByID with a row lock held until the enclosing
	// transaction ends. Only meaningful on a store bound with WithTx.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update overwrites every mutable column of the task.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateFields writes only the named columns plus updated_at.
	// Used where concurrent writers touch disjoint columns of the same row.
	UpdateFields(ctx context.Context, task *domain.Task, columns ...string) error

	// SetLabels replaces the label assignments of a task.
	SetLabels(ctx context.Context, taskID uuid.UUID, labelIDs []uuid.UUID) error

	// List returns the owner's tasks matching filter, plus the total match count.
	List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter, now time.Time) ([]*domain.Task, int, error)

	// ListAll returns every non-deleted task of the owner without labels.
	ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListCreatedBetween returns the owner's non-deleted tasks created in [from, to].
	ListCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Task, error)

	// ListDueSoonIDs returns active tasks due within [now, now+window] whose
	// reminder has not been sent.
	ListDueSoonIDs(ctx context.Context, now time.Time, window time.Duration) ([]uuid.UUID, error)

	// ListOverdueIDs returns non-completed tasks past due whose overdue
	// notification has not been sent.
	ListOverdueIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// ListPurgeable returns soft-deleted tasks last updated before cutoff.
	ListPurgeable(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)

	// HardDelete removes the given soft-deleted tasks still last updated
	// before cutoff. Dependents are removed by cascade. Returns rows deleted.
	HardDelete(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int, error)

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore

	// DB returns the underlying database connection pool.
	DB() *sql.DB
}
