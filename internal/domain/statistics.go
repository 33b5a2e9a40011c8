package domain

import (
	"math"
	"time"
)

// TaskStatistics summarizes one owner's non-deleted tasks.
type TaskStatistics struct {
	TotalTasks            int            `json:"total_tasks"`
	CompletedTasks        int            `json:"completed_tasks"`
	PendingTasks          int            `json:"pending_tasks"`
	InProgressTasks       int            `json:"in_progress_tasks"`
	OverdueTasks          int            `json:"overdue_tasks"`
	CompletionRate        float64        `json:"completion_rate"`
	AverageCompletionDays *float64       `json:"average_completion_time"`
	TasksByPriority       map[string]int `json:"tasks_by_priority"`
	TasksByCategory       map[string]int `json:"tasks_by_category"`
}

// ComputeStatistics aggregates tasks as of now. The average completion time
// covers completed tasks that carry a completion timestamp and is nil when
// there are none. Empty categories are not broken out.
func ComputeStatistics(tasks []*Task, now time.Time) TaskStatistics {
	stats := TaskStatistics{
		TasksByPriority: map[string]int{},
		TasksByCategory: map[string]int{},
	}

	var totalDays, timed int
	for _, t := range tasks {
		stats.TotalTasks++
		switch t.Status {
		case StatusCompleted:
			stats.CompletedTasks++
			if t.CompletedAt != nil {
				totalDays += wholeDays(t.CompletedAt.Sub(t.CreatedAt))
				timed++
			}
		case StatusPending:
			stats.PendingTasks++
		case StatusInProgress:
			stats.InProgressTasks++
		}
		if t.IsOverdueActive(now) {
			stats.OverdueTasks++
		}
		stats.TasksByPriority[t.Priority.Label()]++
		if t.Category != "" {
			stats.TasksByCategory[t.Category]++
		}
	}

	if stats.TotalTasks > 0 {
		stats.CompletionRate = round(float64(stats.CompletedTasks)/float64(stats.TotalTasks)*100, 2)
	}
	if timed > 0 {
		avg := round(float64(totalDays)/float64(timed), 1)
		stats.AverageCompletionDays = &avg
	}
	return stats
}

func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
