package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Activity field names that do not correspond to a task column.
const (
	ActivityFieldCreated = "created"
	ActivityFieldDeleted = "is_deleted"
	ActivityFieldComment = "comment"
)

// Activity is one immutable audit entry for a task. A nil ChangedBy marks a
// system-originated change.
type Activity struct {
	ID        uuid.UUID  `json:"id"`
	TaskID    uuid.UUID  `json:"task_id"`
	FieldName string     `json:"field_name"`
	OldValue  string     `json:"old_value"`
	NewValue  string     `json:"new_value"`
	ChangedBy *uuid.UUID `json:"changed_by"`
	ChangedAt time.Time  `json:"changed_at"`
}

// NewActivity builds an activity row. actor may be nil.
func NewActivity(taskID uuid.UUID, field, oldValue, newValue string, actor *uuid.UUID, now time.Time) *Activity {
	var changedBy *uuid.UUID
	if actor != nil {
		id := *actor
		changedBy = &id
	}
	return &Activity{
		ID:        uuid.New(),
		TaskID:    taskID,
		FieldName: field,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedBy: changedBy,
		ChangedAt: now.UTC(),
	}
}

// FieldChange is a single differing field between two snapshots.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// Snapshot is the display-string image of a task's audited fields, captured
// at one instant. Take one before mutating and one after, then Diff them.
type Snapshot struct {
	fields []snapshotField
}

type snapshotField struct {
	name  string
	value string
}

// Audited task fields in the order they are diffed.
var auditedFields = []string{
	"title",
	"description",
	ColumnStatus,
	ColumnPriority,
	ColumnCategory,
	"labels",
	"due_date",
	"estimated_duration",
	ColumnCompletionPercentage,
	ColumnCompletedAt,
}

// Snapshot captures the audited fields of the task.
func (t *Task) Snapshot() Snapshot {
	return t.SnapshotOf(auditedFields...)
}

// SnapshotOf captures only the named fields. Unknown names are ignored.
func (t *Task) SnapshotOf(names ...string) Snapshot {
	s := Snapshot{fields: make([]snapshotField, 0, len(names))}
	for _, name := range names {
		value, ok := t.displayValue(name)
		if !ok {
			continue
		}
		s.fields = append(s.fields, snapshotField{name: name, value: value})
	}
	return s
}

// Value returns the captured display value for field.
func (s Snapshot) Value(field string) (string, bool) {
	for _, f := range s.fields {
		if f.name == field {
			return f.value, true
		}
	}
	return "", false
}

// Diff compares s (before) against after and returns one change per field
// whose value differs. Fields missing from either side are skipped.
func (s Snapshot) Diff(after Snapshot) []FieldChange {
	var changes []FieldChange
	for _, before := range s.fields {
		next, ok := after.Value(before.name)
		if !ok || next == before.value {
			continue
		}
		changes = append(changes, FieldChange{
			Field:    before.name,
			OldValue: before.value,
			NewValue: next,
		})
	}
	return changes
}

func (t *Task) displayValue(field string) (string, bool) {
	switch field {
	case "title":
		return t.Title, true
	case "description":
		return t.Description, true
	case ColumnStatus:
		return string(t.Status), true
	case ColumnPriority:
		return string(t.Priority), true
	case ColumnCategory:
		return t.Category, true
	case "labels":
		names := make([]string, 0, len(t.Labels))
		for _, l := range t.Labels {
			names = append(names, l.Name)
		}
		sort.Strings(names)
		return strings.Join(names, ", "), true
	case "due_date":
		return formatTime(t.DueDate), true
	case "estimated_duration":
		if t.EstimatedDuration == nil {
			return "", true
		}
		return strconv.Itoa(*t.EstimatedDuration), true
	case ColumnCompletionPercentage:
		return strconv.Itoa(t.CompletionPercentage), true
	case ColumnCompletedAt:
		return formatTime(t.CompletedAt), true
	case ColumnIsDeleted:
		return strconv.FormatBool(t.IsDeleted), true
	default:
		return "", false
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// CreatedStatement is the new_value recorded when a task is created.
func CreatedStatement(t *Task) string {
	return fmt.Sprintf("Task %q created", t.Title)
}

// ExistedStatement is the old_value recorded when a task is soft-deleted.
func ExistedStatement(t *Task) string {
	return fmt.Sprintf("Task %q existed", t.Title)
}

// MarkedForDeletion is the new_value recorded when a task is soft-deleted.
const MarkedForDeletion = "Task marked for deletion"

// CommentAddedStatement is the new_value recorded when a comment is added.
func CommentAddedStatement(author string) string {
	return fmt.Sprintf("Comment added by %s", author)
}

// CommentDeleted is the new_value recorded when a comment is deleted.
const CommentDeleted = "Comment deleted"

// CommentDeletedStatement captures the content and author of a removed comment.
func CommentDeletedStatement(c *Comment) string {
	return fmt.Sprintf("Comment by %s: %s", c.Author, c.Content)
}
