package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// PostgresLabelStore implements store.LabelStore.
type PostgresLabelStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLabelStore creates a new PostgresLabelStore.
func NewPostgresLabelStore(db store.DBTX, logger *slog.Logger) *PostgresLabelStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLabelStore{
		db:     db,
		logger: logger.With(slog.String("component", "label_store")),
	}
}

var _ store.LabelStore = (*PostgresLabelStore)(nil)

const labelColumns = `id, user_id, name, color, created_at, updated_at`

// WithTx returns a store bound to tx.
func (s *PostgresLabelStore) WithTx(tx *sql.Tx) store.LabelStore {
	return &PostgresLabelStore{db: tx, logger: s.logger}
}

// Create inserts a label. A name clash for the same owner yields store.ErrLabelExists.
func (s *PostgresLabelStore) Create(ctx context.Context, label *domain.Label) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_labels (`+labelColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		label.ID, label.UserID, label.Name, label.Color, label.CreatedAt, label.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate label name",
				slog.String("user_id", label.UserID.String()),
				slog.String("name", label.Name))
			return fmt.Errorf("%w: %q", store.ErrLabelExists, label.Name)
		}
		log.Error("failed to create label",
			slog.String("label_id", label.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create label: %w", MapError(err))
	}
	return nil
}

// GetByID returns a label.
func (s *PostgresLabelStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Label, error) {
	var l domain.Label
	err := s.db.QueryRowContext(ctx, `SELECT `+labelColumns+` FROM task_labels WHERE id = $1`, id).
		Scan(&l.ID, &l.UserID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLabelNotFound
		}
		return nil, fmt.Errorf("failed to get label: %w", MapError(err))
	}
	return &l, nil
}

// GetByIDs returns the labels that exist among ids.
func (s *PostgresLabelStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Label, error) {
	if len(ids) == 0 {
		return []domain.Label{}, nil
	}
	b := &queryBuilder{}
	query := `SELECT ` + labelColumns + ` FROM task_labels WHERE id IN ` + b.in(uuidArgs(ids)) + ` ORDER BY name`
	return s.queryLabels(ctx, query, b.args...)
}

// Update persists a rename or recolor.
func (s *PostgresLabelStore) Update(ctx context.Context, label *domain.Label) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE task_labels SET name = $1, color = $2, updated_at = $3 WHERE id = $4`,
		label.Name, label.Color, label.UpdatedAt, label.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %q", store.ErrLabelExists, label.Name)
		}
		return fmt.Errorf("failed to update label: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrLabelNotFound)
}

// Delete removes a label. Assignments go with it by cascade.
func (s *PostgresLabelStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM task_labels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrLabelNotFound)
}

// ListByOwner returns the owner's labels.
func (s *PostgresLabelStore) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Label, error) {
	return s.queryLabels(ctx, `SELECT `+labelColumns+` FROM task_labels WHERE user_id = $1 ORDER BY name`, userID)
}

func (s *PostgresLabelStore) queryLabels(ctx context.Context, query string, args ...any) ([]domain.Label, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	labels := []domain.Label{}
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}
	return labels, nil
}
