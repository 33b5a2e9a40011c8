package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestBuildTaskFilter(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("owner and deletion scope always applied", func(t *testing.T) {
		t.Parallel()
		b := buildTaskFilter(userID, domain.TaskFilter{}, now)
		assert.Equal(t, " WHERE t.user_id = $1 AND NOT t.is_deleted", b.clause())
		assert.Equal(t, []any{userID}, b.args)
	})

	t.Run("enum lists become IN clauses", func(t *testing.T) {
		t.Parallel()
		b := buildTaskFilter(userID, domain.TaskFilter{
			Statuses:   []domain.TaskStatus{domain.StatusPending, domain.StatusInProgress},
			Priorities: []domain.TaskPriority{domain.PriorityHigh},
		}, now)
		assert.Contains(t, b.clause(), "t.status IN ($2, $3)")
		assert.Contains(t, b.clause(), "t.priority IN ($4)")
		assert.Equal(t, []any{userID, "pending", "in_progress", "high"}, b.args)
	})

	t.Run("tri-state flags", func(t *testing.T) {
		t.Parallel()
		b := buildTaskFilter(userID, domain.TaskFilter{
			HasLabels:  boolPtr(false),
			HasDueDate: boolPtr(true),
			IsOverdue:  boolPtr(true),
		}, now)
		clause := b.clause()
		assert.Contains(t, clause, "NOT EXISTS (SELECT 1 FROM task_label_assignments a WHERE a.task_id = t.id)")
		assert.Contains(t, clause, "t.due_date IS NOT NULL")
		assert.Contains(t, clause, "(t.status IN ('pending', 'in_progress') AND t.due_date < $2)")
		require.Len(t, b.args, 2)
		assert.Equal(t, now, b.args[1])
	})

	t.Run("is_overdue false leaves the listing unfiltered", func(t *testing.T) {
		t.Parallel()
		b := buildTaskFilter(userID, domain.TaskFilter{IsOverdue: boolPtr(false)}, now)
		assert.NotContains(t, b.clause(), "due_date")
		assert.Equal(t, []any{userID}, b.args)
	})

	t.Run("search escapes wildcards and reuses one placeholder", func(t *testing.T) {
		t.Parallel()
		b := buildTaskFilter(userID, domain.TaskFilter{Search: " 50%_off "}, now)
		require.Len(t, b.args, 2)
		assert.Equal(t, `%50\%\_off%`, b.args[1])
		assert.Contains(t, b.clause(), "t.title ILIKE $2 OR t.description ILIKE $2")
		assert.Contains(t, b.clause(), "l.name ILIKE $2")
	})

	t.Run("category and label name are case-insensitive", func(t *testing.T) {
		t.Parallel()
		b := buildTaskFilter(userID, domain.TaskFilter{Category: "Work", LabelName: "Urgent"}, now)
		assert.Contains(t, b.clause(), "LOWER(t.category) = LOWER($2)")
		assert.Contains(t, b.clause(), "LOWER(l.name) = LOWER($3)")
	})
}

func TestOrderClause(t *testing.T) {
	t.Parallel()

	assert.Equal(t, " ORDER BY t.created_at DESC, t.id", orderClause("-created_at"))
	assert.Equal(t, " ORDER BY t.due_date ASC NULLS LAST, t.id", orderClause("due_date"))
	assert.Contains(t, orderClause("-priority"), "WHEN 'critical' THEN 4 END DESC")
	assert.Equal(t, " ORDER BY t.created_at DESC, t.id", orderClause("bogus"))
}
