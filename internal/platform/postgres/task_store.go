package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// PostgresTaskStore implements store.TaskStore using PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore. If logger is nil the
// default logger is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `t.id, t.user_id, t.title, t.description, t.status, t.priority, t.due_date,
	t.estimated_duration, t.completion_percentage, t.category, t.created_at, t.updated_at,
	t.completed_at, t.is_deleted, t.reminder_sent, t.overdue_notification_sent`

// WithTx returns a store bound to tx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// DB returns the underlying pool, or nil when the store is bound to a transaction.
func (s *PostgresTaskStore) DB() *sql.DB {
	if db, ok := s.db.(*sql.DB); ok {
		return db
	}
	return nil
}

// Create inserts the task and its label assignments.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, status, priority, due_date,
			estimated_duration, completion_percentage, category, created_at, updated_at,
			completed_at, is_deleted, reminder_sent, overdue_notification_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.EstimatedDuration,
		task.CompletionPercentage,
		task.Category,
		task.CreatedAt,
		task.UpdatedAt,
		task.CompletedAt,
		task.IsDeleted,
		task.ReminderSent,
		task.OverdueNotificationSent,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create task: %w", MapError(err))
	}

	if len(task.Labels) > 0 {
		if err := s.SetLabels(ctx, task.ID, task.LabelIDs()); err != nil {
			return err
		}
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID returns a non-deleted task with labels.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, id, false)
}

// GetByIDForUpdate locks the task row for the rest of the transaction.
func (s *PostgresTaskStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, id, true)
}

func (s *PostgresTaskStore) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1 AND NOT t.is_deleted`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}

	if err := s.loadLabels(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// Update overwrites all mutable columns.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, due_date = $5,
			estimated_duration = $6, completion_percentage = $7, category = $8,
			completed_at = $9, is_deleted = $10, reminder_sent = $11,
			overdue_notification_sent = $12, updated_at = $13
		WHERE id = $14`,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.EstimatedDuration,
		task.CompletionPercentage,
		task.Category,
		task.CompletedAt,
		task.IsDeleted,
		task.ReminderSent,
		task.OverdueNotificationSent,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update task: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

// columnValue returns the value to persist for a narrowly updatable column.
func columnValue(task *domain.Task, column string) (any, bool) {
	switch column {
	case domain.ColumnStatus:
		return string(task.Status), true
	case domain.ColumnPriority:
		return string(task.Priority), true
	case domain.ColumnCategory:
		return task.Category, true
	case domain.ColumnCompletedAt:
		return task.CompletedAt, true
	case domain.ColumnCompletionPercentage:
		return task.CompletionPercentage, true
	case domain.ColumnIsDeleted:
		return task.IsDeleted, true
	case domain.ColumnReminderSent:
		return task.ReminderSent, true
	case domain.ColumnOverdueNotificationSent:
		return task.OverdueNotificationSent, true
	default:
		return nil, false
	}
}

// UpdateFields writes only the named columns plus updated_at.
func (s *PostgresTaskStore) UpdateFields(ctx context.Context, task *domain.Task, columns ...string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := &queryBuilder{}
	sets := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		value, ok := columnValue(task, column)
		if !ok {
			return fmt.Errorf("%w: column %q cannot be updated", store.ErrInvalidEntity, column)
		}
		sets = append(sets, column+" = "+b.arg(value))
	}
	sets = append(sets, "updated_at = "+b.arg(task.UpdatedAt))
	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = " + b.arg(task.ID)

	result, err := s.db.ExecContext(ctx, query, b.args...)
	if err != nil {
		log.Error("failed to update task fields",
			slog.String("task_id", task.ID.String()),
			slog.Any("columns", columns),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update task fields: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

// SetLabels replaces the task's label assignments.
func (s *PostgresTaskStore) SetLabels(ctx context.Context, taskID uuid.UUID, labelIDs []uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_label_assignments WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("failed to clear task labels: %w", MapError(err))
	}
	if len(labelIDs) == 0 {
		return nil
	}

	b := &queryBuilder{}
	taskArg := b.arg(taskID)
	values := make([]string, len(labelIDs))
	for i, id := range labelIDs {
		values[i] = "(" + taskArg + ", " + b.arg(id) + ")"
	}
	query := `INSERT INTO task_label_assignments (task_id, label_id) VALUES ` +
		strings.Join(values, ", ") + ` ON CONFLICT DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("failed to assign task labels: %w", MapError(err))
	}
	return nil
}

// List returns a page of the owner's tasks and the total number of matches.
func (s *PostgresTaskStore) List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter, now time.Time) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := buildTaskFilter(userID, filter, now)

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks t` + b.clause()
	if err := s.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		log.Error("failed to count tasks",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count tasks: %w", MapError(err))
	}

	where := b.clause()
	query := `SELECT ` + taskColumns + `, ` + commentCountSQL + ` AS comment_count FROM tasks t` +
		where + orderClause(filter.OrderBy) +
		` LIMIT ` + b.arg(filter.Limit) + ` OFFSET ` + b.arg(filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list tasks: %w", MapError(err))
	}
	tasks, err := collectTasks(rows, true)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loadLabels(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// ListAll returns every non-deleted task of the owner.
func (s *PostgresTaskStore) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks t WHERE t.user_id = $1 AND NOT t.is_deleted`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", MapError(err))
	}
	return collectTasks(rows, false)
}

// ListCreatedBetween returns the owner's non-deleted tasks created in [from, to].
func (s *PostgresTaskStore) ListCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks t
		WHERE t.user_id = $1 AND NOT t.is_deleted AND t.created_at >= $2 AND t.created_at <= $3
		ORDER BY t.created_at`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by creation date: %w", MapError(err))
	}
	return collectTasks(rows, false)
}

// ListDueSoonIDs returns active tasks due within the window that have not been reminded.
func (s *PostgresTaskStore) ListDueSoonIDs(ctx context.Context, now time.Time, window time.Duration) ([]uuid.UUID, error) {
	return s.queryIDs(ctx, `
		SELECT id FROM tasks
		WHERE NOT is_deleted AND NOT reminder_sent
			AND status IN ('pending', 'in_progress')
			AND due_date >= $1 AND due_date <= $2
		ORDER BY due_date`, now, now.Add(window))
}

// ListOverdueIDs returns active past-due tasks without an overdue notification.
func (s *PostgresTaskStore) ListOverdueIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return s.queryIDs(ctx, `
		SELECT id FROM tasks
		WHERE NOT is_deleted AND NOT overdue_notification_sent
			AND status IN ('pending', 'in_progress')
			AND due_date IS NOT NULL AND due_date < $1
		ORDER BY due_date`, now)
}

// ListPurgeable returns soft-deleted tasks last touched before cutoff.
func (s *PostgresTaskStore) ListPurgeable(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	return s.queryIDs(ctx, `
		SELECT id FROM tasks
		WHERE is_deleted AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2`, cutoff, limit)
}

// HardDelete removes soft-deleted tasks that are still past the cutoff.
// Rows touched after they were listed are left alone.
func (s *PostgresTaskStore) HardDelete(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := &queryBuilder{}
	query := `DELETE FROM tasks WHERE id IN ` + b.in(uuidArgs(ids)) +
		` AND is_deleted AND updated_at < ` + b.arg(cutoff)

	result, err := s.db.ExecContext(ctx, query, b.args...)
	if err != nil {
		log.Error("failed to purge tasks",
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to purge tasks: %w", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresTaskStore) queryIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query task ids: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task ids: %w", err)
	}
	return ids, nil
}

// loadLabels fills Labels on each task with one query.
func (s *PostgresTaskStore) loadLabels(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Task, len(tasks))
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		t.Labels = []domain.Label{}
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	b := &queryBuilder{}
	query := `
		SELECT a.task_id, l.id, l.user_id, l.name, l.color, l.created_at, l.updated_at
		FROM task_label_assignments a
		JOIN task_labels l ON l.id = a.label_id
		WHERE a.task_id IN ` + b.in(uuidArgs(ids)) + `
		ORDER BY l.name`

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return fmt.Errorf("failed to load task labels: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			taskID uuid.UUID
			label  domain.Label
		)
		if err := rows.Scan(&taskID, &label.ID, &label.UserID, &label.Name, &label.Color, &label.CreatedAt, &label.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan task label: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.Labels = append(t.Labels, label)
		}
	}
	return rows.Err()
}

func collectTasks(rows *sql.Rows, withCommentCount bool) ([]*domain.Task, error) {
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		var (
			task *domain.Task
			err  error
		)
		if withCommentCount {
			var count int
			task, err = scanTask(rows, &count)
			if task != nil {
				task.CommentCount = count
			}
		} else {
			task, err = scanTask(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

// scanTask reads taskColumns followed by any extra destinations.
func scanTask(row rowScanner, extra ...any) (*domain.Task, error) {
	var (
		task        domain.Task
		status      string
		priority    string
		dueDate     sql.NullTime
		estimate    sql.NullInt32
		completedAt sql.NullTime
	)
	dest := []any{
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&dueDate,
		&estimate,
		&task.CompletionPercentage,
		&task.Category,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
		&task.IsDeleted,
		&task.ReminderSent,
		&task.OverdueNotificationSent,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	if dueDate.Valid {
		due := dueDate.Time.UTC()
		task.DueDate = &due
	}
	if estimate.Valid {
		minutes := int(estimate.Int32)
		task.EstimatedDuration = &minutes
	}
	if completedAt.Valid {
		at := completedAt.Time.UTC()
		task.CompletedAt = &at
	}
	task.Labels = []domain.Label{}
	return &task, nil
}
