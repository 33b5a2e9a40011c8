package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/platform/notification"
	"github.com/phrazzld/task-service/internal/store"
)

// DueSoonWindow is how close the due date must be for a reminder to go out.
const DueSoonWindow = 24 * time.Hour

// TaskPayload identifies the task a notification job evaluates. Attempt
// counts the deliveries that already failed transiently.
type TaskPayload struct {
	TaskID  uuid.UUID `json:"task_id"`
	Attempt int       `json:"attempt,omitempty"`
}

// notifyJob holds what the reminder and overdue jobs share. Each execution
// reads the task, decides, makes one delivery attempt and only then sets the
// flag. No transaction is open while the notification service is called.
type notifyJob struct {
	base
	taskID  uuid.UUID
	attempt int
	deps    Deps
}

func newNotifyJob(id uuid.UUID, jobType string, payload TaskPayload, deps Deps) (notifyJob, error) {
	if payload.TaskID == uuid.Nil {
		return notifyJob{}, fmt.Errorf("%s job: %w", jobType, domain.ErrEmptyID)
	}
	b, err := newBase(id, jobType, payload)
	if err != nil {
		return notifyJob{}, err
	}
	return notifyJob{base: b, taskID: payload.TaskID, attempt: payload.Attempt, deps: deps.withDefaults()}, nil
}

func (j *notifyJob) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, j.deps.Logger).With(
		slog.String("component", j.jobType),
		slog.String("job_id", j.id.String()),
		slog.String("task_id", j.taskID.String()))
}

// loadTask returns the task or records a task_not_found outcome.
func (j *notifyJob) loadTask(ctx context.Context) (*domain.Task, error) {
	task, err := j.deps.Tasks.GetByID(ctx, j.taskID)
	if errors.Is(err, store.ErrTaskNotFound) {
		j.setResult(Outcome{Status: OutcomeFailed, Reason: ReasonTaskNotFound})
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

// deliver makes one delivery attempt and, on success, persists the sent flag
// through mark. A transient failure with attempts left returns a
// RetryLaterError; an exhausted or cancelled delivery leaves the flag unset.
func (j *notifyJob) deliver(ctx context.Context, task *domain.Task, build func(*domain.User, time.Time) (notification.Message, error), mark func(time.Time), column string) error {
	log := j.log(ctx)

	user, err := j.deps.Users.GetByID(ctx, task.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		j.setResult(Outcome{Status: OutcomeFailed, Reason: ReasonUserNotFound})
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	msg, err := build(user, j.deps.Now())
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	attempt := j.attempt + 1
	if sendErr := j.deps.Notifier.Send(ctx, msg); sendErr != nil {
		log.Warn("notification attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", sendErr.Error()))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isTransientDelivery(sendErr) {
			if delay, ok := j.deps.NotificationRetry.Next(attempt); ok {
				return j.retryLater(attempt, delay, sendErr)
			}
		}
		j.setResult(Outcome{Status: OutcomeFailed, Reason: ReasonDeliveryFailed})
		return fmt.Errorf("notification not delivered after %d attempt(s): %w", attempt, sendErr)
	}

	// The message is out; record it even if the runner is shutting down.
	mark(j.deps.Now())
	if err := j.deps.Tasks.UpdateFields(context.WithoutCancel(ctx), task, column); err != nil {
		return fmt.Errorf("failed to record delivered notification: %w", err)
	}

	j.setResult(Outcome{Status: OutcomeSent})
	log.Info("notification sent", slog.Int("attempts", attempt))
	return nil
}

// retryLater records the failed attempt in the payload so the next execution,
// in this process or after a restart, continues the count.
func (j *notifyJob) retryLater(attempt int, delay time.Duration, cause error) error {
	if err := j.setPayload(TaskPayload{TaskID: j.taskID, Attempt: attempt}); err != nil {
		return err
	}
	j.attempt = attempt
	j.setResult(Outcome{Status: OutcomeRetrying, Reason: ReasonDeliveryFailed})
	return &RetryLaterError{Attempt: attempt, Delay: delay, Err: cause}
}

func (j *notifyJob) skip(ctx context.Context, reason string) error {
	j.setResult(Outcome{Status: OutcomeSkipped, Reason: reason})
	j.log(ctx).Info("notification skipped", slog.String("reason", reason))
	return nil
}

func isTransientDelivery(err error) bool {
	return errors.Is(err, notification.ErrDelivery)
}

// ReminderJob sends the due-soon reminder for one task.
type ReminderJob struct {
	notifyJob
}

// NewReminderJob creates a due-soon reminder job. A nil id assigns a new one.
func NewReminderJob(id uuid.UUID, taskID uuid.UUID, deps Deps) (*ReminderJob, error) {
	return newReminderJob(id, TaskPayload{TaskID: taskID}, deps)
}

func newReminderJob(id uuid.UUID, payload TaskPayload, deps Deps) (*ReminderJob, error) {
	nj, err := newNotifyJob(id, TypeDueSoonReminder, payload, deps)
	if err != nil {
		return nil, err
	}
	return &ReminderJob{notifyJob: nj}, nil
}

// Execute skips tasks already reminded, completed or due more than a day
// out, and otherwise sends the reminder and sets reminder_sent.
func (j *ReminderJob) Execute(ctx context.Context) error {
	task, err := j.loadTask(ctx)
	if err != nil {
		return err
	}

	if task.ReminderSent || task.Status == domain.StatusCompleted {
		return j.skip(ctx, ReasonAlreadySentOrCompleted)
	}
	if task.DueDate != nil && task.DueDate.Sub(j.deps.Now()) > DueSoonWindow {
		return j.skip(ctx, ReasonDueNotSoon)
	}

	return j.deliver(ctx, task, func(user *domain.User, now time.Time) (notification.Message, error) {
		body, err := render(reminderTemplate, newEmailData(task, user, now))
		if err != nil {
			return notification.Message{}, err
		}
		return notification.Message{
			UserID:           user.ID,
			Email:            user.Email,
			Subject:          fmt.Sprintf("Reminder: %s is due soon", task.Title),
			HTMLMessage:      body,
			TaskID:           task.ID,
			NotificationType: notification.TypeTaskReminder,
		}, nil
	}, task.MarkReminderSent, domain.ColumnReminderSent)
}

// OverdueJob sends the overdue notification for one task.
type OverdueJob struct {
	notifyJob
}

// NewOverdueJob creates an overdue notification job. A nil id assigns a new one.
func NewOverdueJob(id uuid.UUID, taskID uuid.UUID, deps Deps) (*OverdueJob, error) {
	return newOverdueJob(id, TaskPayload{TaskID: taskID}, deps)
}

func newOverdueJob(id uuid.UUID, payload TaskPayload, deps Deps) (*OverdueJob, error) {
	nj, err := newNotifyJob(id, TypeOverdueNotification, payload, deps)
	if err != nil {
		return nil, err
	}
	return &OverdueJob{notifyJob: nj}, nil
}

// Execute skips tasks already notified, completed, without a due date or not
// yet past it, and otherwise sends a high-priority notification and sets
// overdue_notification_sent.
func (j *OverdueJob) Execute(ctx context.Context) error {
	task, err := j.loadTask(ctx)
	if err != nil {
		return err
	}

	switch {
	case task.OverdueNotificationSent || task.Status == domain.StatusCompleted:
		return j.skip(ctx, ReasonAlreadySentOrCompleted)
	case task.DueDate == nil:
		return j.skip(ctx, ReasonNoDueDate)
	case !j.deps.Now().After(*task.DueDate):
		return j.skip(ctx, ReasonNotOverdue)
	}

	return j.deliver(ctx, task, func(user *domain.User, now time.Time) (notification.Message, error) {
		body, err := render(overdueTemplate, newEmailData(task, user, now))
		if err != nil {
			return notification.Message{}, err
		}
		return notification.Message{
			UserID:           user.ID,
			Email:            user.Email,
			Subject:          fmt.Sprintf("⚠️ Task Overdue: %s", task.Title),
			HTMLMessage:      body,
			TaskID:           task.ID,
			NotificationType: notification.TypeTaskReminder,
			Priority:         notification.PriorityHigh,
		}, nil
	}, task.MarkOverdueNotified, domain.ColumnOverdueNotificationSent)
}
