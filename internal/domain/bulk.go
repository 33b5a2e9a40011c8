package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxBulkTasks is the largest number of tasks one bulk update may name.
const MaxBulkTasks = 100

// BulkUpdate holds the fields a bulk update may set. Nil fields are left alone.
type BulkUpdate struct {
	Status   *TaskStatus   `json:"status,omitempty"`
	Priority *TaskPriority `json:"priority,omitempty"`
	Category *string       `json:"category,omitempty"`
}

// IsEmpty reports whether no field is populated. A blank category counts as
// not populated.
func (u BulkUpdate) IsEmpty() bool {
	return u.Status == nil && u.Priority == nil && !u.hasCategory()
}

func (u BulkUpdate) hasCategory() bool {
	return u.Category != nil && strings.TrimSpace(*u.Category) != ""
}

// Validate checks the populated values.
func (u BulkUpdate) Validate() error {
	if u.IsEmpty() {
		return NewValidationError("updates", "At least one of status, priority or category is required", nil)
	}
	if u.Status != nil && !u.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("%q is not a valid status", *u.Status), ErrInvalidStatus)
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return NewValidationError("priority", fmt.Sprintf("%q is not a valid priority", *u.Priority), ErrInvalidPriority)
	}
	if u.hasCategory() {
		if _, err := ValidateCategory(*u.Category); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBulkRequest rejects an empty or oversized id list and an empty or
// invalid update. It returns the ids with duplicates removed, in input order.
func ValidateBulkRequest(ids []uuid.UUID, u BulkUpdate) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, NewValidationError("task_ids", "At least one task id is required", nil)
	}
	if len(ids) > MaxBulkTasks {
		return nil, NewValidationError("task_ids", fmt.Sprintf("At most %d task ids are allowed", MaxBulkTasks), nil)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, NewValidationError("task_ids", "Task ids cannot be empty", ErrEmptyID)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique, nil
}

// ApplyBulk sets the populated fields on the task. A status change goes
// through Transition so its side effects apply. The returned slice names the
// columns to persist besides updated_at.
func (t *Task) ApplyBulk(u BulkUpdate, now time.Time) ([]string, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	columns := []string{}
	if u.Status != nil {
		changed, err := t.Transition(*u.Status, now)
		if err != nil {
			return nil, err
		}
		columns = append(columns, changed...)
	}
	if u.Priority != nil && *u.Priority != t.Priority {
		t.Priority = *u.Priority
		columns = append(columns, ColumnPriority)
	}
	if u.hasCategory() {
		category, _ := ValidateCategory(*u.Category)
		if category != t.Category {
			t.Category = category
			columns = append(columns, ColumnCategory)
		}
	}
	t.UpdatedAt = now.UTC()
	return columns, nil
}

// BulkAuditFields are the fields whose changes a bulk update records.
var BulkAuditFields = []string{ColumnStatus, ColumnPriority, ColumnCategory}
