package domain

import (
	"fmt"
	"time"
)

// Listing orders accepted by TaskFilter.OrderBy. A leading "-" means descending.
var allowedOrderings = map[string]bool{
	"created_at":  true,
	"-created_at": true,
	"updated_at":  true,
	"-updated_at": true,
	"due_date":    true,
	"-due_date":   true,
	"priority":    true,
	"-priority":   true,
}

// DefaultOrderBy lists newest tasks first.
const DefaultOrderBy = "-created_at"

// Pagination limits.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// TaskFilter narrows a task listing. Zero values disable a criterion.
// Tri-state criteria use *bool: nil means "don't care".
type TaskFilter struct {
	Statuses      []TaskStatus
	Priorities    []TaskPriority
	Category      string
	LabelName     string
	DueAfter      *time.Time
	DueBefore     *time.Time
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	HasLabels     *bool
	HasComments   *bool
	HasDueDate    *bool
	IsOverdue     *bool
	Search        string
	OrderBy       string
	Limit         int
	Offset        int
}

// Normalize validates enum values and fills ordering and paging defaults.
func (f *TaskFilter) Normalize() error {
	for _, s := range f.Statuses {
		if !s.Valid() {
			return NewValidationError("status", fmt.Sprintf("%q is not a valid status", s), ErrInvalidStatus)
		}
	}
	for _, p := range f.Priorities {
		if !p.Valid() {
			return NewValidationError("priority", fmt.Sprintf("%q is not a valid priority", p), ErrInvalidPriority)
		}
	}
	if f.OrderBy == "" {
		f.OrderBy = DefaultOrderBy
	}
	if !allowedOrderings[f.OrderBy] {
		return NewValidationError("ordering", fmt.Sprintf("cannot order by %q", f.OrderBy), nil)
	}
	if f.Limit < 0 || f.Offset < 0 {
		return NewValidationError("limit", "pagination values cannot be negative", nil)
	}
	if f.Limit == 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return nil
}
