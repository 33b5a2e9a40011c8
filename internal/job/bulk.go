package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
)

// BulkPayload is the input of a bulk update job.
type BulkPayload struct {
	UserID  uuid.UUID         `json:"user_id"`
	TaskIDs []uuid.UUID       `json:"task_ids"`
	Updates domain.BulkUpdate `json:"updates"`
}

// BulkResult is the outcome of a bulk update job.
type BulkResult struct {
	Status       string `json:"status"`
	UpdatedCount int    `json:"updated_count"`
}

// BulkUpdateJob applies one bulk update request.
type BulkUpdateJob struct {
	base
	payload BulkPayload
	deps    Deps
}

// NewBulkUpdateJob validates the payload and creates the job.
func NewBulkUpdateJob(id uuid.UUID, payload BulkPayload, deps Deps) (*BulkUpdateJob, error) {
	if payload.UserID == uuid.Nil {
		return nil, fmt.Errorf("bulk update job: %w", domain.ErrEmptyID)
	}
	ids, err := domain.ValidateBulkRequest(payload.TaskIDs, payload.Updates)
	if err != nil {
		return nil, err
	}
	payload.TaskIDs = ids

	b, err := newBase(id, TypeBulkUpdate, payload)
	if err != nil {
		return nil, err
	}
	return &BulkUpdateJob{base: b, payload: payload, deps: deps.withDefaults()}, nil
}

// Execute hands the request to the bulk applier, which commits each task on
// its own, and records how many tasks changed.
func (j *BulkUpdateJob) Execute(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, j.deps.Logger).With(
		slog.String("component", TypeBulkUpdate),
		slog.String("job_id", j.id.String()),
		slog.String("user_id", j.payload.UserID.String()))

	n, err := j.deps.Bulk.ApplyBulkUpdate(ctx, j.payload.UserID, j.payload.TaskIDs, j.payload.Updates)
	if err != nil {
		j.setResult(BulkResult{Status: OutcomeFailed, UpdatedCount: n})
		return fmt.Errorf("bulk update failed: %w", err)
	}

	j.setResult(BulkResult{Status: OutcomeCompleted, UpdatedCount: n})
	log.Info("bulk update applied",
		slog.Int("requested", len(j.payload.TaskIDs)),
		slog.Int("updated", n))
	return nil
}
