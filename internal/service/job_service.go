package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/events"
	"github.com/phrazzld/task-service/internal/job"
	"github.com/phrazzld/task-service/internal/platform/logger"
)

// JobReader loads persisted background jobs.
type JobReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*job.Record, error)
}

// JobService requests user-initiated background work and reports on it.
// Requests are acknowledged with the job id; the outcome is read back later.
type JobService interface {
	// RequestBulkUpdate validates the request and schedules a bulk update.
	RequestBulkUpdate(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID, update domain.BulkUpdate) (uuid.UUID, error)
	// RequestReport schedules a productivity report for the period.
	RequestReport(ctx context.Context, userID uuid.UUID, period domain.ReportPeriod) (uuid.UUID, error)
	// Get returns a job requested by the user.
	Get(ctx context.Context, userID, jobID uuid.UUID) (*job.Record, error)
}

type jobServiceImpl struct {
	jobs    JobReader
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewJobService creates a JobService.
func NewJobService(jobs JobReader, emitter events.EventEmitter, log *slog.Logger) (JobService, error) {
	if jobs == nil {
		return nil, domain.NewValidationError("jobs", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	return &jobServiceImpl{
		jobs:    jobs,
		emitter: emitter,
		logger:  log.With(slog.String("component", "job_service")),
	}, nil
}

func (s *jobServiceImpl) RequestBulkUpdate(
	ctx context.Context,
	userID uuid.UUID,
	taskIDs []uuid.UUID,
	update domain.BulkUpdate,
) (uuid.UUID, error) {
	ids, err := domain.ValidateBulkRequest(taskIDs, update)
	if err != nil {
		return uuid.Nil, err
	}
	return s.request(ctx, "bulk_update", userID, job.TypeBulkUpdate, job.BulkPayload{
		UserID:  userID,
		TaskIDs: ids,
		Updates: update,
	})
}

func (s *jobServiceImpl) RequestReport(ctx context.Context, userID uuid.UUID, period domain.ReportPeriod) (uuid.UUID, error) {
	period, err := domain.ParseReportPeriod(string(period))
	if err != nil {
		return uuid.Nil, err
	}
	return s.request(ctx, "report", userID, job.TypeTaskReport, job.ReportPayload{
		UserID: userID,
		Period: period,
	})
}

func (s *jobServiceImpl) Get(ctx context.Context, userID, jobID uuid.UUID) (*job.Record, error) {
	rec, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, NewServiceError("job", "get", "failed to load job", err)
	}

	// Only jobs carrying the caller's user id are visible to them.
	var owner struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.Unmarshal(rec.Payload, &owner); err != nil || owner.UserID != userID {
		return nil, ErrNotOwned
	}
	return rec, nil
}

func (s *jobServiceImpl) request(ctx context.Context, op string, userID uuid.UUID, jobType string, payload any) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("job_type", jobType))

	event, err := events.NewJobRequestEvent(jobType, payload)
	if err != nil {
		return uuid.Nil, NewServiceError("job", op, "failed to create event", err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit job request", slog.String("error", err.Error()))
		return uuid.Nil, NewServiceError("job", op, "failed to schedule job", err)
	}

	log.Info("job requested", slog.String("job_id", event.ID.String()))
	return event.ID, nil
}
