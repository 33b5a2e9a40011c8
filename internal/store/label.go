package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
)

// LabelStore persists user-owned labels.
type LabelStore interface {
	// Create inserts a label. Returns ErrLabelExists when the owner already
	// has a label with the same name.
	Create(ctx context.Context, label *domain.Label) error

	// GetByID returns a label or ErrLabelNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Label, error)

	// GetByIDs returns the labels that exist among ids, in name order.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Label, error)

	// Update persists a rename or recolor.
	Update(ctx context.Context, label *domain.Label) error

	// Delete removes a label and its task assignments.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByOwner returns the owner's labels in name order.
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Label, error)

	// WithTx returns a LabelStore bound to tx.
	WithTx(tx *sql.Tx) LabelStore
}
