package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/analytics"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// ReportPayload is the input of a task report job. Attempt counts the
// deliveries that already failed transiently.
type ReportPayload struct {
	UserID  uuid.UUID           `json:"user_id"`
	Period  domain.ReportPeriod `json:"period"`
	Attempt int                 `json:"attempt,omitempty"`
}

// ReportData is the report body posted to the analytics service.
type ReportData struct {
	User string `json:"user"`
	domain.TaskReport
}

// ReportResult is the outcome of a report job.
type ReportResult struct {
	Status     string      `json:"status"`
	Reason     string      `json:"reason,omitempty"`
	ReportData *ReportData `json:"report_data,omitempty"`
}

// ReportJob builds a productivity report for one user and delivers it.
type ReportJob struct {
	base
	payload ReportPayload
	deps    Deps
	report  *ReportData
}

// NewReportJob creates a report job. An empty period means a month.
func NewReportJob(id uuid.UUID, payload ReportPayload, deps Deps) (*ReportJob, error) {
	if payload.UserID == uuid.Nil {
		return nil, fmt.Errorf("report job: %w", domain.ErrEmptyID)
	}
	period, err := domain.ParseReportPeriod(string(payload.Period))
	if err != nil {
		return nil, err
	}
	payload.Period = period

	b, err := newBase(id, TypeTaskReport, payload)
	if err != nil {
		return nil, err
	}
	return &ReportJob{base: b, payload: payload, deps: deps.withDefaults()}, nil
}

// Report returns the report built by the last Execute, or nil.
func (j *ReportJob) Report() *ReportData {
	return j.report
}

// Execute aggregates the user's tasks created in the period and makes one
// delivery attempt. A transient failure with attempts left returns a
// RetryLaterError.
func (j *ReportJob) Execute(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, j.deps.Logger).With(
		slog.String("component", TypeTaskReport),
		slog.String("job_id", j.id.String()),
		slog.String("user_id", j.payload.UserID.String()))

	user, err := j.deps.Users.GetByID(ctx, j.payload.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		j.setResult(ReportResult{Status: OutcomeFailed, Reason: ReasonUserNotFound})
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	now := j.deps.Now()
	start, end := j.payload.Period.Window(now)
	tasks, err := j.deps.Tasks.ListCreatedBetween(ctx, user.ID, start, end)
	if err != nil {
		return fmt.Errorf("failed to load tasks for report: %w", err)
	}

	data := &ReportData{User: user.Email, TaskReport: domain.BuildReport(j.payload.Period, tasks, now)}
	j.report = data

	if err := ctx.Err(); err != nil {
		return err
	}

	attempt := j.payload.Attempt + 1
	err = j.deps.Reporter.StoreReport(ctx, analytics.Report{
		UserID:     user.ID,
		ReportData: data,
		Period:     string(j.payload.Period),
	})
	if err != nil {
		log.Warn("report delivery attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isTransientReport(err) {
			if delay, ok := j.deps.ReportRetry.Next(attempt); ok {
				next := j.payload
				next.Attempt = attempt
				if perr := j.setPayload(next); perr != nil {
					return perr
				}
				j.payload = next
				j.setResult(ReportResult{Status: OutcomeRetrying, Reason: ReasonDeliveryFailed, ReportData: data})
				return &RetryLaterError{Attempt: attempt, Delay: delay, Err: err}
			}
		}
		j.setResult(ReportResult{Status: OutcomeFailed, Reason: ReasonDeliveryFailed, ReportData: data})
		return fmt.Errorf("report not delivered after %d attempt(s): %w", attempt, err)
	}

	j.setResult(ReportResult{Status: OutcomeSent, ReportData: data})
	log.Info("report delivered",
		slog.String("period", string(j.payload.Period)),
		slog.Int("total_tasks", data.TotalTasks))
	return nil
}

func isTransientReport(err error) bool {
	return errors.Is(err, analytics.ErrDelivery)
}
