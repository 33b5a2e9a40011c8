package domain

import (
	"fmt"
	"time"
)

// ReportPeriod selects the window a productivity report covers.
type ReportPeriod string

// Report periods.
const (
	PeriodWeek    ReportPeriod = "week"
	PeriodMonth   ReportPeriod = "month"
	PeriodQuarter ReportPeriod = "quarter"
)

// Days returns the window length. Unknown periods fall back to a month.
func (p ReportPeriod) Days() int {
	switch p {
	case PeriodWeek:
		return 7
	case PeriodQuarter:
		return 90
	default:
		return 30
	}
}

// ParseReportPeriod accepts week, month or quarter.
func ParseReportPeriod(raw string) (ReportPeriod, error) {
	switch p := ReportPeriod(raw); p {
	case PeriodWeek, PeriodMonth, PeriodQuarter:
		return p, nil
	case "":
		return PeriodMonth, nil
	default:
		return "", NewValidationError("period", fmt.Sprintf("%q is not a valid period", raw), nil)
	}
}

// TaskReport is the productivity summary delivered to the analytics service.
type TaskReport struct {
	Period                ReportPeriod `json:"period"`
	StartDate             time.Time    `json:"start_date"`
	EndDate               time.Time    `json:"end_date"`
	TotalTasks            int          `json:"total_tasks"`
	CompletedTasks        int          `json:"completed_tasks"`
	CompletionRate        float64      `json:"completion_rate"`
	AverageDaysToComplete float64      `json:"average_days_to_complete"`
}

// Window returns the [start, end] range of the period ending at now.
func (p ReportPeriod) Window(now time.Time) (start, end time.Time) {
	end = now.UTC()
	return end.AddDate(0, 0, -p.Days()), end
}

// BuildReport summarizes tasks created within the period ending at now.
// Tasks outside the window are ignored.
func BuildReport(period ReportPeriod, tasks []*Task, now time.Time) TaskReport {
	start, end := period.Window(now)
	report := TaskReport{Period: period, StartDate: start, EndDate: end}

	var totalDays int
	for _, t := range tasks {
		if t.CreatedAt.Before(start) || t.CreatedAt.After(end) {
			continue
		}
		report.TotalTasks++
		if t.Status == StatusCompleted && t.CompletedAt != nil {
			report.CompletedTasks++
			totalDays += wholeDays(t.CompletedAt.Sub(t.CreatedAt))
		}
	}

	if report.TotalTasks > 0 {
		report.CompletionRate = round(float64(report.CompletedTasks)/float64(report.TotalTasks)*100, 2)
	}
	if report.CompletedTasks > 0 {
		report.AverageDaysToComplete = round(float64(totalDays)/float64(report.CompletedTasks), 1)
	}
	return report
}
