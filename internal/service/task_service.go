package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/events"
	"github.com/phrazzld/task-service/internal/job"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// DueSoonWindow is how far ahead DueSoon looks.
const DueSoonWindow = 24 * time.Hour

// DefaultActivityLimit caps an activity listing when the caller gives no limit.
const DefaultActivityLimit = 100

// CreateTaskInput carries the owner-supplied fields of a new task.
type CreateTaskInput struct {
	Draft    domain.TaskDraft
	LabelIDs []uuid.UUID
}

// UpdateTaskInput is a partial update. Status goes through the lifecycle
// transition; a non-nil LabelIDs replaces the label set.
type UpdateTaskInput struct {
	Patch    domain.TaskPatch
	Status   *domain.TaskStatus
	LabelIDs *[]uuid.UUID
}

// IsEmpty reports whether the update changes nothing.
func (in UpdateTaskInput) IsEmpty() bool {
	return in.Patch.IsEmpty() && in.Status == nil && in.LabelIDs == nil
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks  []*domain.Task `json:"results"`
	Total  int            `json:"count"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// TaskService owns the task lifecycle. Every mutation and the activity rows
// describing it commit in one transaction.
type TaskService interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, in UpdateTaskInput) (*domain.Task, error)

	// Transition moves the task to status. Any status may follow any other.
	Transition(ctx context.Context, userID, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error)
	// Complete transitions to completed and requests a reminder evaluation.
	Complete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	Start(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	Cancel(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	Hold(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	SoftDelete(ctx context.Context, userID, taskID uuid.UUID) error

	List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) (*TaskPage, error)
	Overdue(ctx context.Context, userID uuid.UUID, limit, offset int) (*TaskPage, error)
	DueSoon(ctx context.Context, userID uuid.UUID, limit, offset int) (*TaskPage, error)
	Statistics(ctx context.Context, userID uuid.UUID) (*domain.TaskStatistics, error)
	Activity(ctx context.Context, userID, taskID uuid.UUID, limit int) ([]*domain.Activity, error)

	// ApplyBulkUpdate applies update to each listed task the user owns, one
	// transaction per task. Missing, foreign and deleted tasks are skipped.
	ApplyBulkUpdate(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID, update domain.BulkUpdate) (int, error)
}

type taskServiceImpl struct {
	tasks      store.TaskStore
	labels     store.LabelStore
	activities store.ActivityStore
	recorder   *ActivityRecorder
	emitter    events.EventEmitter
	now        func() time.Time
	logger     *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	labels store.LabelStore,
	activities store.ActivityStore,
	emitter events.EventEmitter,
	log *slog.Logger,
	opts ...Option,
) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if labels == nil {
		return nil, domain.NewValidationError("labels", "cannot be nil", domain.ErrValidation)
	}
	if activities == nil {
		return nil, domain.NewValidationError("activities", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	o := buildOptions(opts)
	return &taskServiceImpl{
		tasks:      tasks,
		labels:     labels,
		activities: activities,
		recorder:   NewActivityRecorder(activities, log),
		emitter:    emitter,
		now:        o.now,
		logger:     log.With(slog.String("component", "task_service")),
	}, nil
}

var (
	_ TaskService     = (*taskServiceImpl)(nil)
	_ job.BulkApplier = (*taskServiceImpl)(nil)
)

// Create validates the draft, checks label ownership and inserts the task
// with its creation activity.
func (s *taskServiceImpl) Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, in.Draft, s.now())
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		labels, err := resolveLabels(ctx, s.labels.WithTx(tx), userID, in.LabelIDs)
		if err != nil {
			return err
		}
		task.Labels = labels

		if err := s.tasks.WithTx(tx).Create(ctx, task); err != nil {
			return taskError("create", "failed to save task", err)
		}
		if err := s.recorder.WithTx(tx).RecordCreated(ctx, task); err != nil {
			return taskError("create", "failed to record creation", err)
		}
		return nil
	})
	if err != nil {
		log.Warn("task creation failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	return task, nil
}

// Get returns a task the user owns.
func (s *taskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, taskError("get", "failed to load task", err)
	}
	if task.UserID != userID {
		return nil, ErrNotOwned
	}
	return task, nil
}

// Update applies a partial update and records one activity per changed field.
// The before-image is captured under the row lock, before any field changes.
func (s *taskServiceImpl) Update(ctx context.Context, userID, taskID uuid.UUID, in UpdateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("task_id", taskID.String()))

	if in.IsEmpty() {
		return s.Get(ctx, userID, taskID)
	}

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		task, err := s.lockOwned(ctx, txTasks, userID, taskID)
		if err != nil {
			return err
		}

		now := s.now()
		before := task.Snapshot()

		if err := task.ApplyPatch(in.Patch, now); err != nil {
			return err
		}
		if in.Status != nil {
			if _, err := task.Transition(*in.Status, now); err != nil {
				return err
			}
		}
		if in.LabelIDs != nil {
			labels, err := resolveLabels(ctx, s.labels.WithTx(tx), userID, *in.LabelIDs)
			if err != nil {
				return err
			}
			task.Labels = labels
		}
		task.UpdatedAt = now.UTC()

		if err := txTasks.Update(ctx, task); err != nil {
			return taskError("update", "failed to save task", err)
		}
		if in.LabelIDs != nil {
			if err := txTasks.SetLabels(ctx, task.ID, task.LabelIDs()); err != nil {
				return taskError("update", "failed to save labels", err)
			}
		}

		n, err := s.recorder.WithTx(tx).RecordChanges(ctx, task.ID, before, task.Snapshot(), &userID, now)
		if err != nil {
			return taskError("update", "failed to record changes", err)
		}
		log.Debug("task updated", slog.Int("changed_fields", n))
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Transition moves the task to status, persisting only the columns the
// transition touched.
func (s *taskServiceImpl) Transition(ctx context.Context, userID, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("task_id", taskID.String()))

	if !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("%q is not a valid status", status), domain.ErrInvalidStatus)
	}

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		task, err := s.lockOwned(ctx, txTasks, userID, taskID)
		if err != nil {
			return err
		}

		now := s.now()
		before := task.Snapshot()
		columns, err := task.Transition(status, now)
		if err != nil {
			return err
		}
		if err := txTasks.UpdateFields(ctx, task, columns...); err != nil {
			return taskError("transition", "failed to save status", err)
		}
		if _, err := s.recorder.WithTx(tx).RecordChanges(ctx, task.ID, before, task.Snapshot(), &userID, now); err != nil {
			return taskError("transition", "failed to record changes", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task status changed", slog.String("status", string(status)))
	return updated, nil
}

// Complete marks the task completed and asks for a reminder evaluation. The
// evaluation runs after the commit; a failure to request it is logged only.
func (s *taskServiceImpl) Complete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.Transition(ctx, userID, taskID, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}

	event, err := events.NewJobRequestEvent(job.TypeDueSoonReminder, job.TaskPayload{TaskID: task.ID})
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to request reminder evaluation",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
	}
	return task, nil
}

// Start marks the task in progress.
func (s *taskServiceImpl) Start(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.Transition(ctx, userID, taskID, domain.StatusInProgress)
}

// Cancel marks the task cancelled.
func (s *taskServiceImpl) Cancel(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.Transition(ctx, userID, taskID, domain.StatusCancelled)
}

// Hold puts the task on hold.
func (s *taskServiceImpl) Hold(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.Transition(ctx, userID, taskID, domain.StatusOnHold)
}

// SoftDelete flags the task as deleted and records the deletion. The row is
// purged later by the retention sweep.
func (s *taskServiceImpl) SoftDelete(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("task_id", taskID.String()))

	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		task, err := s.lockOwned(ctx, txTasks, userID, taskID)
		if err != nil {
			return err
		}

		now := s.now()
		task.SoftDelete(now)
		if err := txTasks.UpdateFields(ctx, task, domain.ColumnIsDeleted); err != nil {
			return taskError("delete", "failed to mark task deleted", err)
		}
		if err := s.recorder.WithTx(tx).RecordDeleted(ctx, task, userID, now); err != nil {
			return taskError("delete", "failed to record deletion", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("task marked for deletion", slog.String("user_id", userID.String()))
	return nil
}

// List returns a page of the user's tasks matching filter.
func (s *taskServiceImpl) List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) (*TaskPage, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	tasks, total, err := s.tasks.List(ctx, userID, filter, s.now())
	if err != nil {
		return nil, taskError("list", "failed to list tasks", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return &TaskPage{Tasks: tasks, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Overdue lists the user's past-due, unfinished tasks.
func (s *taskServiceImpl) Overdue(ctx context.Context, userID uuid.UUID, limit, offset int) (*TaskPage, error) {
	overdue := true
	return s.List(ctx, userID, domain.TaskFilter{
		IsOverdue: &overdue,
		OrderBy:   "due_date",
		Limit:     limit,
		Offset:    offset,
	})
}

// DueSoon lists pending and in-progress tasks due within DueSoonWindow.
func (s *taskServiceImpl) DueSoon(ctx context.Context, userID uuid.UUID, limit, offset int) (*TaskPage, error) {
	now := s.now().UTC()
	until := now.Add(DueSoonWindow)
	return s.List(ctx, userID, domain.TaskFilter{
		Statuses:  []domain.TaskStatus{domain.StatusPending, domain.StatusInProgress},
		DueAfter:  &now,
		DueBefore: &until,
		OrderBy:   "due_date",
		Limit:     limit,
		Offset:    offset,
	})
}

// Statistics summarizes the user's non-deleted tasks.
func (s *taskServiceImpl) Statistics(ctx context.Context, userID uuid.UUID) (*domain.TaskStatistics, error) {
	tasks, err := s.tasks.ListAll(ctx, userID)
	if err != nil {
		return nil, taskError("statistics", "failed to load tasks", err)
	}
	stats := domain.ComputeStatistics(tasks, s.now())
	return &stats, nil
}

// Activity returns the task's audit trail, newest first.
func (s *taskServiceImpl) Activity(ctx context.Context, userID, taskID uuid.UUID, limit int) ([]*domain.Activity, error) {
	if _, err := s.Get(ctx, userID, taskID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	rows, err := s.activities.ListByTask(ctx, taskID, limit)
	if err != nil {
		return nil, taskError("activity", "failed to load activity", err)
	}
	return rows, nil
}

// ApplyBulkUpdate commits each task separately so a failure on one task
// leaves the others applied. Per-task failures are joined into the returned
// error together with the count of tasks updated.
func (s *taskServiceImpl) ApplyBulkUpdate(
	ctx context.Context,
	userID uuid.UUID,
	taskIDs []uuid.UUID,
	update domain.BulkUpdate,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("user_id", userID.String()))

	if err := update.Validate(); err != nil {
		return 0, err
	}

	var (
		updated int
		errs    []error
	)
	for _, id := range taskIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		applied, err := s.applyBulkToTask(ctx, userID, id, update)
		if err != nil {
			log.Error("bulk update failed for task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("task %s: %w", id, err))
			continue
		}
		if applied {
			updated++
		}
	}

	log.Info("bulk update finished",
		slog.Int("requested", len(taskIDs)),
		slog.Int("updated", updated),
		slog.Int("failed", len(errs)))
	return updated, errors.Join(errs...)
}

// applyBulkToTask reports false without error when the task is skipped.
func (s *taskServiceImpl) applyBulkToTask(ctx context.Context, userID, taskID uuid.UUID, update domain.BulkUpdate) (bool, error) {
	applied := false
	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		task, err := txTasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil
			}
			return err
		}
		if task.UserID != userID || task.IsDeleted {
			return nil
		}

		now := s.now()
		before := task.SnapshotOf(domain.BulkAuditFields...)
		columns, err := task.ApplyBulk(update, now)
		if err != nil {
			return err
		}
		if err := txTasks.UpdateFields(ctx, task, columns...); err != nil {
			return err
		}
		after := task.SnapshotOf(domain.BulkAuditFields...)
		if _, err := s.recorder.WithTx(tx).RecordChanges(ctx, task.ID, before, after, &userID, now); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// lockOwned loads the task under a row lock and checks ownership.
func (s *taskServiceImpl) lockOwned(ctx context.Context, tasks store.TaskStore, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := tasks.GetByIDForUpdate(ctx, taskID)
	if err != nil {
		return nil, taskError("load", "failed to load task", err)
	}
	if task.UserID != userID {
		return nil, ErrNotOwned
	}
	return task, nil
}

// resolveLabels loads the referenced labels and checks they all belong to
// owner. Duplicates are ignored.
func resolveLabels(ctx context.Context, labels store.LabelStore, owner uuid.UUID, ids []uuid.UUID) ([]domain.Label, error) {
	if len(ids) == 0 {
		return []domain.Label{}, nil
	}

	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := labels.GetByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if len(found) != len(unique) {
		return nil, domain.NewValidationError("labels", "One or more labels do not exist", ErrLabelNotOwned)
	}
	for _, l := range found {
		if l.UserID != owner {
			return nil, domain.NewValidationError("labels", "Labels must belong to the task owner", ErrLabelNotOwned)
		}
	}
	return found, nil
}
