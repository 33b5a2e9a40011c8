package job

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/phrazzld/task-service/internal/domain"
)

var reminderTemplate = template.Must(template.New("reminder").Parse(
	`<p>Hi {{.Name}},</p>
<p>Your task <strong>{{.Title}}</strong> is due {{.When}}.</p>
<p>Priority: {{.Priority}}{{if .Category}} &middot; Category: {{.Category}}{{end}}</p>
<p>Progress: {{.Progress}}%</p>`))

var overdueTemplate = template.Must(template.New("overdue").Parse(
	`<p>Hi {{.Name}},</p>
<p>Your task <strong>{{.Title}}</strong> is overdue by {{.Overdue}}.</p>
<p>Priority: {{.Priority}}{{if .Category}} &middot; Category: {{.Category}}{{end}}</p>`))

type emailData struct {
	Name     string
	Title    string
	When     string
	Overdue  string
	Priority string
	Category string
	Progress int
}

func newEmailData(task *domain.Task, user *domain.User, now time.Time) emailData {
	d := emailData{
		Name:     user.DisplayName(),
		Title:    task.Title,
		When:     "soon",
		Priority: task.Priority.Label(),
		Category: task.Category,
		Progress: task.CompletionPercentage,
	}
	if days, ok := task.DaysUntilDue(now); ok {
		switch {
		case days <= 0:
			d.When = "today"
		case days == 1:
			d.When = "tomorrow"
		default:
			d.When = fmt.Sprintf("in %d days", days)
		}
		d.Overdue = pluralDays(-days)
	}
	return d
}

func pluralDays(n int) string {
	switch {
	case n <= 0:
		return "less than a day"
	case n == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", n)
	}
}

func render(t *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
