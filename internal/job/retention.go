package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/platform/logger"
)

// RetentionResult is the outcome of a retention sweep.
type RetentionResult struct {
	Status string `json:"status"`
	Purged int    `json:"cleaned_up"`
}

// RetentionJob hard-deletes tasks that have been soft-deleted for longer
// than the grace period. It is the only path by which task rows disappear.
type RetentionJob struct {
	base
	deps   Deps
	purged int
}

// NewRetentionJob creates a retention sweep. A nil id assigns a new one.
func NewRetentionJob(id uuid.UUID, deps Deps) (*RetentionJob, error) {
	b, err := newBase(id, TypeRetentionSweep, struct{}{})
	if err != nil {
		return nil, err
	}
	return &RetentionJob{base: b, deps: deps.withDefaults()}, nil
}

// Purged returns the number of tasks removed by the last Execute.
func (j *RetentionJob) Purged() int {
	return j.purged
}

// Execute purges in batches until nothing older than the cutoff remains.
// Rows modified after they were listed are left for a later sweep.
func (j *RetentionJob) Execute(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, j.deps.Logger).With(
		slog.String("component", TypeRetentionSweep),
		slog.String("job_id", j.id.String()))

	cutoff := j.deps.Now().Add(-j.deps.Retention.GracePeriod)
	batch := j.deps.Retention.BatchSize
	if batch <= 0 {
		batch = DefaultRetentionPolicy().BatchSize
	}

	j.purged = 0
	for {
		if err := ctx.Err(); err != nil {
			j.setResult(RetentionResult{Status: OutcomeFailed, Purged: j.purged})
			return err
		}

		ids, err := j.deps.Tasks.ListPurgeable(ctx, cutoff, batch)
		if err != nil {
			j.setResult(RetentionResult{Status: OutcomeFailed, Purged: j.purged})
			return fmt.Errorf("failed to list purgeable tasks: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		n, err := j.deps.Tasks.HardDelete(ctx, ids, cutoff)
		if err != nil {
			j.setResult(RetentionResult{Status: OutcomeFailed, Purged: j.purged})
			return fmt.Errorf("failed to purge tasks: %w", err)
		}
		j.purged += n

		if len(ids) < batch || n == 0 {
			break
		}
	}

	j.setResult(RetentionResult{Status: OutcomeCompleted, Purged: j.purged})
	log.Info("retention sweep finished",
		slog.Int("purged", j.purged),
		slog.Time("cutoff", cutoff))
	return nil
}
