package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses. Any status may follow any other; only the value set is enforced.
const (
	StatusAssigned   TaskStatus = "assigned"
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
	StatusOnHold     TaskStatus = "on_hold"
)

// AllStatuses lists every valid status in display order.
var AllStatuses = []TaskStatus{
	StatusAssigned,
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusOnHold,
}

// Valid reports whether s is one of the defined statuses.
func (s TaskStatus) Valid() bool {
	for _, candidate := range AllStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ParseTaskStatus converts a raw value into a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	status := TaskStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", NewValidationError("status", fmt.Sprintf("%q is not a valid status", raw), ErrInvalidStatus)
	}
	return status, nil
}

// TaskPriority is the urgency of a task.
type TaskPriority string

// Task priorities.
const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// AllPriorities lists every valid priority from least to most urgent.
var AllPriorities = []TaskPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

// Valid reports whether p is one of the defined priorities.
func (p TaskPriority) Valid() bool {
	for _, candidate := range AllPriorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// Rank orders priorities; higher is more urgent. Unknown values rank 0.
func (p TaskPriority) Rank() int {
	for i, candidate := range AllPriorities {
		if p == candidate {
			return i + 1
		}
	}
	return 0
}

// Label returns the human-facing priority label used in statistics.
func (p TaskPriority) Label() string {
	switch p {
	case PriorityLow:
		return "P3 (Low)"
	case PriorityMedium:
		return "P2 (Medium)"
	case PriorityHigh:
		return "P1 (High)"
	case PriorityCritical:
		return "P0 (Critical)"
	default:
		return string(p)
	}
}

// ParseTaskPriority converts a raw value into a TaskPriority.
func ParseTaskPriority(raw string) (TaskPriority, error) {
	priority := TaskPriority(strings.TrimSpace(raw))
	if !priority.Valid() {
		return "", NewValidationError("priority", fmt.Sprintf("%q is not a valid priority", raw), ErrInvalidPriority)
	}
	return priority, nil
}

// Field length limits.
const (
	MinTitleLength    = 3
	MaxTitleLength    = 255
	MaxCategoryLength = 100
)

// Task is a unit of work owned by a single user.
type Task struct {
	ID                      uuid.UUID    `json:"id"`
	UserID                  uuid.UUID    `json:"user_id"`
	Title                   string       `json:"title"`
	Description             string       `json:"description"`
	Status                  TaskStatus   `json:"status"`
	Priority                TaskPriority `json:"priority"`
	DueDate                 *time.Time   `json:"due_date,omitempty"`
	EstimatedDuration       *int         `json:"estimated_duration,omitempty"`
	CompletionPercentage    int          `json:"completion_percentage"`
	Category                string       `json:"category"`
	Labels                  []Label      `json:"labels"`
	CommentCount            int          `json:"comment_count"`
	CreatedAt               time.Time    `json:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at"`
	CompletedAt             *time.Time   `json:"completed_at,omitempty"`
	IsDeleted               bool         `json:"-"`
	ReminderSent            bool         `json:"reminder_sent"`
	OverdueNotificationSent bool         `json:"overdue_notification_sent"`
}

// TaskDraft carries the owner-supplied values for a new task.
// Zero values mean "use the default".
type TaskDraft struct {
	Title             string
	Description       string
	Priority          TaskPriority
	Category          string
	DueDate           *time.Time
	EstimatedDuration *int
}

// NewTask validates a draft and builds a pending task owned by userID.
// Label ownership is checked by the caller, which has access to the store.
func NewTask(userID uuid.UUID, draft TaskDraft, now time.Time) (*Task, error) {
	if userID == uuid.Nil {
		return nil, NewValidationError("user_id", "owner is required", ErrEmptyID)
	}

	title, err := ValidateTitle(draft.Title)
	if err != nil {
		return nil, err
	}

	priority := draft.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("%q is not a valid priority", priority), ErrInvalidPriority)
	}

	category, err := ValidateCategory(draft.Category)
	if err != nil {
		return nil, err
	}

	if err := ValidateSchedule(draft.DueDate, draft.EstimatedDuration, now); err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Task{
		ID:                uuid.New(),
		UserID:            userID,
		Title:             title,
		Description:       draft.Description,
		Status:            StatusPending,
		Priority:          priority,
		DueDate:           utcPtr(draft.DueDate),
		EstimatedDuration: draft.EstimatedDuration,
		Category:          category,
		Labels:            []Label{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// ValidateTitle trims the title and enforces its length bounds.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if utf8.RuneCountInString(trimmed) < MinTitleLength {
		return "", NewValidationError("title", "Title must be at least 3 characters long", nil)
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return "", NewValidationError("title", "Title must be at most 255 characters long", nil)
	}
	return trimmed, nil
}

// ValidateCategory enforces the category length limit.
func ValidateCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return "", NewValidationError("category", "Category must be at most 100 characters long", nil)
	}
	return category, nil
}

// ValidateDueDate rejects due dates that are already in the past.
func ValidateDueDate(due *time.Time, now time.Time) error {
	if due != nil && due.Before(now) {
		return NewValidationError("due_date", "Due date must be in the future", nil)
	}
	return nil
}

// ValidateEstimatedDuration rejects non-positive estimates.
func ValidateEstimatedDuration(minutes *int) error {
	if minutes != nil && *minutes <= 0 {
		return NewValidationError("estimated_duration", "Estimated duration must be positive", nil)
	}
	return nil
}

// ValidateCompletionPercentage enforces the 0..100 range.
func ValidateCompletionPercentage(pct int) error {
	if pct < 0 || pct > 100 {
		return NewValidationError("completion_percentage", "Completion percentage must be between 0 and 100", nil)
	}
	return nil
}

// ValidateSchedule checks the due date and estimate individually and then
// verifies that the estimate fits into the hours remaining before the due date.
func ValidateSchedule(due *time.Time, minutes *int, now time.Time) error {
	if err := ValidateDueDate(due, now); err != nil {
		return err
	}
	if err := ValidateEstimatedDuration(minutes); err != nil {
		return err
	}
	if due != nil && minutes != nil {
		hoursAvailable := due.Sub(now).Hours()
		hoursNeeded := float64(*minutes) / 60
		if hoursNeeded > hoursAvailable {
			return NewValidationError(
				"estimated_duration",
				fmt.Sprintf("Estimated duration (%.1fh) exceeds time until due date (%.1fh)", hoursNeeded, hoursAvailable),
				nil,
			)
		}
	}
	return nil
}

// IsOverdue reports whether the task has passed its due date without being completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return now.After(*t.DueDate)
}

// DaysUntilDue returns the signed number of whole days from now until the
// due date. ok is false when the task has no due date.
func (t *Task) DaysUntilDue(now time.Time) (days int, ok bool) {
	if t.DueDate == nil {
		return 0, false
	}
	return int(math.Floor(t.DueDate.Sub(now).Hours() / 24)), true
}

// IsOverdueActive reports whether the task counts as overdue in listings and
// statistics: pending or in progress with the due date passed. Cancelled,
// on-hold and assigned tasks are never counted.
func (t *Task) IsOverdueActive(now time.Time) bool {
	return t.IsActive() && t.IsOverdue(now)
}

// IsActive reports whether work on the task is still expected.
func (t *Task) IsActive() bool {
	return t.Status == StatusPending || t.Status == StatusInProgress
}

// LabelIDs returns the identifiers of the attached labels.
func (t *Task) LabelIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Labels))
	for _, l := range t.Labels {
		ids = append(ids, l.ID)
	}
	return ids
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
