package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many jobs run concurrently
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory queue
	QueueSize int

	// StuckJobAge defines how long a job can be in processing state
	// before it's considered stuck and requeued
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stuck jobs.
	// If zero, defaults to 5 minutes
	StuckJobCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           4,
		QueueSize:             256,
		StuckJobAge:           30 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}
}

// Runner persists submitted jobs and executes them on a pool of workers.
type Runner struct {
	store      Store
	registry   *Registry
	queue      *Queue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
	errHandler func(j Job, err error)
}

// NewRunner creates a Runner. The registry is used to rebuild jobs read back
// from the store during recovery.
func NewRunner(store Store, registry *Registry, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.StuckJobCheckInterval == 0 {
		config.StuckJobCheckInterval = 5 * time.Minute
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "job_runner"))

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:      store,
		registry:   registry,
		queue:      NewQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(j Job, err error) {},
	}
}

// SetErrorHandler installs a callback invoked after a job fails.
func (r *Runner) SetErrorHandler(handler func(j Job, err error)) {
	r.errHandler = handler
}

// Submit persists the job in pending state and queues it. A job that cannot
// be queued is marked failed.
func (r *Runner) Submit(ctx context.Context, j Job) error {
	if err := r.store.Save(ctx, j); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	if err := r.queue.Enqueue(j); err != nil {
		if updateErr := r.store.UpdateStatus(ctx, j.ID(), StatusFailed, err.Error()); updateErr != nil {
			r.logger.Error("failed to mark unqueued job as failed",
				slog.String("job_id", j.ID().String()),
				slog.String("error", updateErr.Error()))
		}
		return fmt.Errorf("failed to queue job: %w", err)
	}
	return nil
}

// Start recovers unfinished jobs and starts the workers and the stuck-job monitor.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckJobMonitor()

	r.logger.Info("job runner started", slog.Int("workers", r.config.WorkerCount))
	return nil
}

// Stop cancels running jobs, waits for the workers and closes the queue.
// Jobs interrupted by Stop are returned to pending and recovered on the next Start.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.queue.Close()
	r.logger.Info("job runner stopped")
}

// Recover requeues jobs left pending or processing by a previous run.
func (r *Runner) Recover(ctx context.Context) error {
	pending, err := r.store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	// Every processing job is stale at startup regardless of age.
	processing, err := r.store.ListProcessing(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		slog.Int("pending_count", len(pending)),
		slog.Int("processing_count", len(processing)))

	for _, rec := range pending {
		r.requeue(ctx, rec, "")
	}
	for _, rec := range processing {
		r.requeue(ctx, rec, "Reset after recovery")
	}
	return nil
}

// requeue rebuilds a stored job and queues it. A non-empty reason resets the
// stored status to pending first.
func (r *Runner) requeue(ctx context.Context, rec Record, reason string) {
	log := r.logger.With(
		slog.String("job_id", rec.ID.String()),
		slog.String("job_type", rec.Type))

	j, err := r.registry.Build(rec)
	if err != nil {
		log.Error("failed to rebuild job", slog.String("error", err.Error()))
		if updateErr := r.store.UpdateStatus(ctx, rec.ID, StatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to mark job as failed", slog.String("error", updateErr.Error()))
		}
		return
	}

	if reason != "" {
		if err := r.store.UpdateStatus(ctx, rec.ID, StatusPending, reason); err != nil {
			log.Error("failed to reset job status", slog.String("error", err.Error()))
			return
		}
	}

	if rec.NotBefore != nil {
		if delay := time.Until(*rec.NotBefore); delay > 0 {
			r.enqueueAfter(j, delay)
			log.Info("requeued job for later", slog.Duration("delay", delay))
			return
		}
	}

	if err := r.queue.Enqueue(j); err != nil {
		log.Error("failed to requeue job", slog.String("error", err.Error()))
		return
	}
	log.Info("requeued job")
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", slog.Int("worker_id", id))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return

		case j, ok := <-r.queue.Jobs():
			if !ok {
				r.logger.Debug("job channel closed, stopping worker", slog.Int("worker_id", id))
				return
			}
			r.processJob(j, id)
		}
	}
}

// processJob executes one job and records its outcome. Status writes use a
// background context so they still land while the runner is stopping.
func (r *Runner) processJob(j Job, workerID int) {
	ctx := context.Background()
	log := r.logger.With(
		slog.String("job_id", j.ID().String()),
		slog.String("job_type", j.Type()),
		slog.Int("worker_id", workerID))

	if err := r.store.UpdateStatus(ctx, j.ID(), StatusProcessing, ""); err != nil {
		log.Error("failed to update job status to processing", slog.String("error", err.Error()))
		return
	}

	log.Info("processing job")
	err := j.Execute(r.ctx)

	if resulter, ok := j.(Resulter); ok && len(resulter.Result()) > 0 {
		if saveErr := r.store.SaveResult(ctx, j.ID(), resulter.Result()); saveErr != nil {
			log.Error("failed to save job result", slog.String("error", saveErr.Error()))
		}
	}

	later, retryLater := IsRetryLater(err)

	switch {
	case err == nil:
		log.Info("job completed successfully")
		if updateErr := r.store.UpdateStatus(ctx, j.ID(), StatusCompleted, ""); updateErr != nil {
			log.Error("failed to update job status to completed", slog.String("error", updateErr.Error()))
		}

	case retryLater:
		log.Warn("job will be retried",
			slog.Int("attempt", later.Attempt),
			slog.Duration("delay", later.Delay),
			slog.String("error", err.Error()))
		notBefore := time.Now().UTC().Add(later.Delay)
		if updateErr := r.store.Reschedule(ctx, j.ID(), j.Payload(), notBefore, err.Error()); updateErr != nil {
			log.Error("failed to reschedule job", slog.String("error", updateErr.Error()))
			return
		}
		r.enqueueAfter(j, later.Delay)

	case r.ctx.Err() != nil && errors.Is(err, context.Canceled):
		log.Warn("job interrupted by shutdown")
		if updateErr := r.store.UpdateStatus(ctx, j.ID(), StatusPending, "Interrupted by shutdown"); updateErr != nil {
			log.Error("failed to reset interrupted job", slog.String("error", updateErr.Error()))
		}

	default:
		log.Error("job execution failed", slog.String("error", err.Error()))
		if updateErr := r.store.UpdateStatus(ctx, j.ID(), StatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to update job status to failed", slog.String("error", updateErr.Error()))
		}
		r.errHandler(j, err)
	}
}

// enqueueAfter queues j once delay has passed. The wait occupies no worker.
// If the runner stops first the job stays pending with its not-before time
// and Recover picks it up on the next Start.
func (r *Runner) enqueueAfter(j Job, delay time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-r.ctx.Done():
			return
		case <-timer.C:
		}

		if err := r.queue.Enqueue(j); err != nil {
			r.logger.Error("failed to queue delayed job",
				slog.String("job_id", j.ID().String()),
				slog.String("error", err.Error()))
			if updateErr := r.store.UpdateStatus(context.Background(), j.ID(), StatusFailed, err.Error()); updateErr != nil {
				r.logger.Error("failed to mark delayed job as failed",
					slog.String("job_id", j.ID().String()),
					slog.String("error", updateErr.Error()))
			}
		}
	}()
}

// stuckJobMonitor periodically requeues jobs that have been processing for
// longer than StuckJobAge.
func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			r.requeueStuck(r.ctx)
		}
	}
}

func (r *Runner) requeueStuck(ctx context.Context) {
	stuck, err := r.store.ListProcessing(ctx, r.config.StuckJobAge)
	if err != nil {
		r.logger.Error("failed to check for stuck jobs", slog.String("error", err.Error()))
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("found stuck jobs", slog.Int("count", len(stuck)))
	for _, rec := range stuck {
		r.requeue(ctx, rec, "Reset after being stuck in processing state")
	}
}
