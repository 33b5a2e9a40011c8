package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// PostgresActivityStore implements store.ActivityStore. It only ever
// inserts and reads task_activities.
type PostgresActivityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActivityStore creates a new PostgresActivityStore.
func NewPostgresActivityStore(db store.DBTX, logger *slog.Logger) *PostgresActivityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityStore{
		db:     db,
		logger: logger.With(slog.String("component", "activity_store")),
	}
}

var _ store.ActivityStore = (*PostgresActivityStore)(nil)

// WithTx returns a store bound to tx.
func (s *PostgresActivityStore) WithTx(tx *sql.Tx) store.ActivityStore {
	return &PostgresActivityStore{db: tx, logger: s.logger}
}

// Append inserts the activities in one statement.
func (s *PostgresActivityStore) Append(ctx context.Context, activities ...*domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := &queryBuilder{}
	values := make([]string, len(activities))
	for i, a := range activities {
		var changedBy uuid.NullUUID
		if a.ChangedBy != nil {
			changedBy = uuid.NullUUID{UUID: *a.ChangedBy, Valid: true}
		}
		values[i] = "(" + strings.Join([]string{
			b.arg(a.ID),
			b.arg(a.TaskID),
			b.arg(a.FieldName),
			b.arg(a.OldValue),
			b.arg(a.NewValue),
			b.arg(changedBy),
			b.arg(a.ChangedAt),
		}, ", ") + ")"
	}
	query := `INSERT INTO task_activities (id, task_id, field_name, old_value, new_value, changed_by, changed_at) VALUES ` +
		strings.Join(values, ", ")

	if _, err := s.db.ExecContext(ctx, query, b.args...); err != nil {
		log.Error("failed to append activity",
			slog.String("task_id", activities[0].TaskID.String()),
			slog.Int("count", len(activities)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to append activity: %w", MapError(err))
	}
	return nil
}

// ListByTask returns the task's activity newest first.
func (s *PostgresActivityStore) ListByTask(ctx context.Context, taskID uuid.UUID, limit int) ([]*domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, field_name, old_value, new_value, changed_by, changed_at
		FROM task_activities
		WHERE task_id = $1
		ORDER BY changed_at DESC, id
		LIMIT $2`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	activities := []*domain.Activity{}
	for rows.Next() {
		var (
			a         domain.Activity
			changedBy uuid.NullUUID
		)
		if err := rows.Scan(&a.ID, &a.TaskID, &a.FieldName, &a.OldValue, &a.NewValue, &changedBy, &a.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if changedBy.Valid {
			id := changedBy.UUID
			a.ChangedBy = &id
		}
		activities = append(activities, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}
	return activities, nil
}
