package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
)

// queryBuilder accumulates WHERE conditions with positional arguments.
type queryBuilder struct {
	conds []string
	args  []any
}

// arg registers a value and returns its placeholder.
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// in registers every value and returns "(ph1, ph2, ...)".
func (b *queryBuilder) in(values []any) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.arg(v)
	}
	return "(" + strings.Join(placeholders, ", ") + ")"
}

func (b *queryBuilder) where(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *queryBuilder) clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// uuidArgs converts ids for use with queryBuilder.in.
func uuidArgs(ids []uuid.UUID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// likePattern escapes LIKE metacharacters and wraps term in wildcards.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

const (
	hasLabelSQL     = `EXISTS (SELECT 1 FROM task_label_assignments a WHERE a.task_id = t.id)`
	hasCommentSQL   = `EXISTS (SELECT 1 FROM task_comments c WHERE c.task_id = t.id AND NOT c.is_deleted)`
	commentCountSQL = `(SELECT COUNT(*) FROM task_comments c WHERE c.task_id = t.id AND NOT c.is_deleted)`
)

// buildTaskFilter translates a TaskFilter for the owner into SQL conditions.
// The filter must already be normalized.
func buildTaskFilter(userID uuid.UUID, f domain.TaskFilter, now time.Time) *queryBuilder {
	b := &queryBuilder{}
	b.where("t.user_id = " + b.arg(userID))
	b.where("NOT t.is_deleted")

	if len(f.Statuses) > 0 {
		values := make([]any, len(f.Statuses))
		for i, s := range f.Statuses {
			values[i] = string(s)
		}
		b.where("t.status IN " + b.in(values))
	}
	if len(f.Priorities) > 0 {
		values := make([]any, len(f.Priorities))
		for i, p := range f.Priorities {
			values[i] = string(p)
		}
		b.where("t.priority IN " + b.in(values))
	}
	if f.Category != "" {
		b.where("LOWER(t.category) = LOWER(" + b.arg(f.Category) + ")")
	}
	if f.LabelName != "" {
		b.where(`EXISTS (SELECT 1 FROM task_label_assignments a JOIN task_labels l ON l.id = a.label_id
			WHERE a.task_id = t.id AND LOWER(l.name) = LOWER(` + b.arg(f.LabelName) + `))`)
	}
	if f.DueAfter != nil {
		b.where("t.due_date >= " + b.arg(*f.DueAfter))
	}
	if f.DueBefore != nil {
		b.where("t.due_date <= " + b.arg(*f.DueBefore))
	}
	if f.CreatedAfter != nil {
		b.where("t.created_at >= " + b.arg(*f.CreatedAfter))
	}
	if f.CreatedBefore != nil {
		b.where("t.created_at <= " + b.arg(*f.CreatedBefore))
	}
	if f.HasLabels != nil {
		b.where(negate(hasLabelSQL, !*f.HasLabels))
	}
	if f.HasComments != nil {
		b.where(negate(hasCommentSQL, !*f.HasComments))
	}
	if f.HasDueDate != nil {
		if *f.HasDueDate {
			b.where("t.due_date IS NOT NULL")
		} else {
			b.where("t.due_date IS NULL")
		}
	}
	// is_overdue=false does not filter at all.
	if f.IsOverdue != nil && *f.IsOverdue {
		b.where("(t.status IN ('pending', 'in_progress') AND t.due_date < " + b.arg(now) + ")")
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		p := b.arg(likePattern(term))
		b.where(`(t.title ILIKE ` + p + ` OR t.description ILIKE ` + p + ` OR t.category ILIKE ` + p + `
			OR EXISTS (SELECT 1 FROM task_label_assignments a JOIN task_labels l ON l.id = a.label_id
				WHERE a.task_id = t.id AND l.name ILIKE ` + p + `))`)
	}
	return b
}

func negate(cond string, not bool) string {
	if not {
		return "NOT " + cond
	}
	return cond
}

const prioritySortSQL = `CASE t.priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'critical' THEN 4 END`

// orderClause maps a validated ordering onto SQL. Unknown values fall back
// to newest first.
func orderClause(orderBy string) string {
	desc := strings.HasPrefix(orderBy, "-")
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	var expr string
	switch strings.TrimPrefix(orderBy, "-") {
	case "due_date":
		expr = "t.due_date " + dir + " NULLS LAST"
	case "priority":
		expr = prioritySortSQL + " " + dir
	case "updated_at":
		expr = "t.updated_at " + dir
	case "created_at":
		expr = "t.created_at " + dir
	default:
		expr = "t.created_at DESC"
	}
	return " ORDER BY " + expr + ", t.id"
}
