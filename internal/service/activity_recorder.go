package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// ActivityRecorder turns observed task and comment changes into audit rows.
// Bind it to the mutation's transaction with WithTx so the change and its
// activity commit together.
type ActivityRecorder struct {
	activities store.ActivityStore
	logger     *slog.Logger
}

// NewActivityRecorder creates a recorder writing to activities.
func NewActivityRecorder(activities store.ActivityStore, log *slog.Logger) *ActivityRecorder {
	if activities == nil {
		panic("activity store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ActivityRecorder{
		activities: activities,
		logger:     log.With(slog.String("component", "activity_recorder")),
	}
}

// WithTx returns a recorder writing through tx.
func (r *ActivityRecorder) WithTx(tx *sql.Tx) *ActivityRecorder {
	return &ActivityRecorder{
		activities: r.activities.WithTx(tx),
		logger:     r.logger,
	}
}

// RecordCreated writes the single creation entry of a task. Creation is
// attributed to the system, so changed_by is null.
func (r *ActivityRecorder) RecordCreated(ctx context.Context, task *domain.Task) error {
	a := domain.NewActivity(task.ID, domain.ActivityFieldCreated, "", domain.CreatedStatement(task), nil, task.CreatedAt)
	return r.append(ctx, "created", a)
}

// RecordChanges writes one entry per field whose value differs between
// before and after. Returns the number of entries written.
func (r *ActivityRecorder) RecordChanges(
	ctx context.Context,
	taskID uuid.UUID,
	before, after domain.Snapshot,
	actor *uuid.UUID,
	now time.Time,
) (int, error) {
	changes := before.Diff(after)
	if len(changes) == 0 {
		return 0, nil
	}

	rows := make([]*domain.Activity, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, domain.NewActivity(taskID, c.Field, c.OldValue, c.NewValue, actor, now))
	}
	if err := r.append(ctx, "changes", rows...); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// RecordDeleted writes the soft-delete entry of a task.
func (r *ActivityRecorder) RecordDeleted(ctx context.Context, task *domain.Task, actor uuid.UUID, now time.Time) error {
	a := domain.NewActivity(
		task.ID,
		domain.ActivityFieldDeleted,
		domain.ExistedStatement(task),
		domain.MarkedForDeletion,
		&actor,
		now,
	)
	return r.append(ctx, "deleted", a)
}

// RecordComment writes the entry for a new comment, attributed to its author.
func (r *ActivityRecorder) RecordComment(ctx context.Context, c *domain.Comment) error {
	author := c.AuthorID
	a := domain.NewActivity(
		c.TaskID,
		domain.ActivityFieldComment,
		"",
		domain.CommentAddedStatement(c.Author),
		&author,
		c.CreatedAt,
	)
	return r.append(ctx, "comment", a)
}

// RecordCommentDeleted preserves the content and author of a removed comment.
func (r *ActivityRecorder) RecordCommentDeleted(ctx context.Context, c *domain.Comment, actor uuid.UUID, now time.Time) error {
	a := domain.NewActivity(
		c.TaskID,
		domain.ActivityFieldComment,
		domain.CommentDeletedStatement(c),
		domain.CommentDeleted,
		&actor,
		now,
	)
	return r.append(ctx, "comment_deleted", a)
}

func (r *ActivityRecorder) append(ctx context.Context, kind string, rows ...*domain.Activity) error {
	log := logger.FromContextOrDefault(ctx, r.logger)
	if err := r.activities.Append(ctx, rows...); err != nil {
		log.Error("failed to record activity",
			slog.String("kind", kind),
			slog.String("task_id", rows[0].TaskID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to record %s activity: %w", kind, err)
	}
	log.Debug("recorded activity",
		slog.String("kind", kind),
		slog.String("task_id", rows[0].TaskID.String()),
		slog.Int("count", len(rows)))
	return nil
}
