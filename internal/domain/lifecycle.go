package domain

import (
	"fmt"
	"time"
)

// Column names used when persisting narrow updates.
const (
	ColumnStatus                  = "status"
	ColumnCompletedAt             = "completed_at"
	ColumnCompletionPercentage    = "completion_percentage"
	ColumnIsDeleted               = "is_deleted"
	ColumnReminderSent            = "reminder_sent"
	ColumnOverdueNotificationSent = "overdue_notification_sent"
	ColumnPriority                = "priority"
	ColumnCategory                = "category"
)

// Transition moves the task to target and applies the status side effects.
//
// Entering completed stamps completed_at and forces the completion percentage
// to 100. Re-entering the current status leaves every field except updated_at
// untouched. completed_at is never cleared once set.
//
// The returned slice names the columns that must be persisted besides updated_at.
func (t *Task) Transition(target TaskStatus, now time.Time) ([]string, error) {
	if !target.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("%q is not a valid status", target), ErrInvalidStatus)
	}

	now = now.UTC()
	t.UpdatedAt = now

	if t.Status == target {
		return []string{}, nil
	}

	t.Status = target
	columns := []string{ColumnStatus}
	if target == StatusCompleted {
		completedAt := now
		t.CompletedAt = &completedAt
		t.CompletionPercentage = 100
		columns = append(columns, ColumnCompletedAt, ColumnCompletionPercentage)
	}
	return columns, nil
}

// SoftDelete flags the task as deleted. The row stays until the retention sweep.
func (t *Task) SoftDelete(now time.Time) {
	t.IsDeleted = true
	t.UpdatedAt = now.UTC()
}

// MarkReminderSent records a delivered due-soon reminder.
func (t *Task) MarkReminderSent(now time.Time) {
	t.ReminderSent = true
	t.UpdatedAt = now.UTC()
}

// MarkOverdueNotified records a delivered overdue notification.
func (t *Task) MarkOverdueNotified(now time.Time) {
	t.OverdueNotificationSent = true
	t.UpdatedAt = now.UTC()
}

// TaskPatch is a partial update. Nil pointers leave the field unchanged.
// Labels are resolved by the caller and applied separately.
type TaskPatch struct {
	Title                  *string
	Description            *string
	Priority               *TaskPriority
	Category               *string
	DueDate                *time.Time
	ClearDueDate           bool
	EstimatedDuration      *int
	ClearEstimatedDuration bool
	CompletionPercentage   *int
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Priority == nil &&
		p.Category == nil &&
		p.DueDate == nil &&
		!p.ClearDueDate &&
		p.EstimatedDuration == nil &&
		!p.ClearEstimatedDuration &&
		p.CompletionPercentage == nil
}

// ApplyPatch validates the patch against the task and applies it.
// On error the task is left unmodified.
func (t *Task) ApplyPatch(p TaskPatch, now time.Time) error {
	next := *t

	if p.Title != nil {
		title, err := ValidateTitle(*p.Title)
		if err != nil {
			return err
		}
		next.Title = title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return NewValidationError("priority", fmt.Sprintf("%q is not a valid priority", *p.Priority), ErrInvalidPriority)
		}
		next.Priority = *p.Priority
	}
	if p.Category != nil {
		category, err := ValidateCategory(*p.Category)
		if err != nil {
			return err
		}
		next.Category = category
	}
	if p.CompletionPercentage != nil {
		if err := ValidateCompletionPercentage(*p.CompletionPercentage); err != nil {
			return err
		}
		next.CompletionPercentage = *p.CompletionPercentage
	}

	switch {
	case p.ClearDueDate:
		next.DueDate = nil
	case p.DueDate != nil:
		if err := ValidateDueDate(p.DueDate, now); err != nil {
			return err
		}
		next.DueDate = utcPtr(p.DueDate)
	}

	switch {
	case p.ClearEstimatedDuration:
		next.EstimatedDuration = nil
	case p.EstimatedDuration != nil:
		if err := ValidateEstimatedDuration(p.EstimatedDuration); err != nil {
			return err
		}
		minutes := *p.EstimatedDuration
		next.EstimatedDuration = &minutes
	}

	// The estimate is only weighed against a due date sent in the same patch.
	if p.DueDate != nil && p.EstimatedDuration != nil {
		if err := ValidateSchedule(p.DueDate, p.EstimatedDuration, now); err != nil {
			return err
		}
	}

	next.UpdatedAt = now.UTC()
	*t = next
	return nil
}
