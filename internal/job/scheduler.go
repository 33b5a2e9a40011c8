package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Submitter accepts jobs for execution. *Runner satisfies it.
type Submitter interface {
	Submit(ctx context.Context, j Job) error
}

// SchedulerConfig controls how often candidates are enumerated and how fast
// jobs are handed to the runner.
type SchedulerConfig struct {
	// Interval between candidate scans.
	Interval time.Duration

	// DispatchPerMinute caps job submissions.
	DispatchPerMinute int

	// RetentionInterval is the minimum time between retention sweeps.
	RetentionInterval time.Duration

	// ResubmitAfter suppresses a second job for the same task and type
	// within this window.
	ResubmitAfter time.Duration
}

// DefaultSchedulerConfig returns the defaults used by the server.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:          5 * time.Minute,
		DispatchPerMinute: 600,
		RetentionInterval: 24 * time.Hour,
		ResubmitAfter:     time.Hour,
	}
}

type scheduledKey struct {
	jobType string
	taskID  uuid.UUID
}

// Scheduler is the cron-equivalent front of the notification jobs: on every
// tick it enumerates due-soon and overdue candidates and submits one job per
// task. Whether a notification is actually sent is decided by the job.
type Scheduler struct {
	tasks     TaskRepository
	registry  *Registry
	submitter Submitter
	limiter   *rate.Limiter
	config    SchedulerConfig
	now       func() time.Time
	logger    *slog.Logger

	mu        sync.Mutex
	scheduled map[scheduledKey]time.Time
	lastSweep time.Time
}

// NewScheduler creates a Scheduler. now may be nil.
func NewScheduler(tasks TaskRepository, registry *Registry, submitter Submitter, config SchedulerConfig, now func() time.Time, logger *slog.Logger) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.DispatchPerMinute <= 0 {
		config.DispatchPerMinute = defaults.DispatchPerMinute
	}
	if config.RetentionInterval <= 0 {
		config.RetentionInterval = defaults.RetentionInterval
	}
	if config.ResubmitAfter <= 0 {
		config.ResubmitAfter = defaults.ResubmitAfter
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = slog.Default()
	}

	perSecond := rate.Limit(float64(config.DispatchPerMinute) / 60)
	return &Scheduler{
		tasks:     tasks,
		registry:  registry,
		submitter: submitter,
		limiter:   rate.NewLimiter(perSecond, config.DispatchPerMinute),
		config:    config,
		now:       now,
		logger:    logger.With(slog.String("component", "job_scheduler")),
		scheduled: make(map[scheduledKey]time.Time),
	}
}

// Run ticks until ctx is done. The first tick happens immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.Info("job scheduler started", slog.Duration("interval", s.config.Interval))
	for {
		if n, err := s.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("scheduler tick failed", slog.String("error", err.Error()))
		} else if n > 0 {
			s.logger.Info("scheduled jobs", slog.Int("count", n))
		}

		select {
		case <-ctx.Done():
			s.logger.Info("job scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick enumerates candidates once and submits their jobs. It returns the
// number of jobs submitted.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	now := s.now()

	var dueSoon, overdue []uuid.UUID
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.tasks.ListDueSoonIDs(gctx, now, DueSoonWindow)
		if err != nil {
			return fmt.Errorf("failed to list due-soon tasks: %w", err)
		}
		dueSoon = ids
		return nil
	})
	g.Go(func() error {
		ids, err := s.tasks.ListOverdueIDs(gctx, now)
		if err != nil {
			return fmt.Errorf("failed to list overdue tasks: %w", err)
		}
		overdue = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.forgetBefore(now.Add(-s.config.ResubmitAfter))

	submitted := 0
	for _, batch := range []struct {
		jobType string
		ids     []uuid.UUID
	}{
		{TypeDueSoonReminder, dueSoon},
		{TypeOverdueNotification, overdue},
	} {
		for _, id := range batch.ids {
			key := scheduledKey{jobType: batch.jobType, taskID: id}
			if s.recentlyScheduled(key) {
				continue
			}
			if err := s.dispatch(ctx, batch.jobType, TaskPayload{TaskID: id}); err != nil {
				if ctx.Err() != nil {
					return submitted, ctx.Err()
				}
				continue
			}
			s.markScheduled(key, now)
			submitted++
		}
	}

	if s.sweepDue(now) {
		if err := s.dispatch(ctx, TypeRetentionSweep, struct{}{}); err == nil {
			s.markSwept(now)
			submitted++
		}
	}
	return submitted, nil
}

func (s *Scheduler) dispatch(ctx context.Context, jobType string, payload any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	j, err := s.registry.Create(jobType, payload)
	if err != nil {
		s.logger.Error("failed to build job",
			slog.String("job_type", jobType),
			slog.String("error", err.Error()))
		return err
	}
	if err := s.submitter.Submit(ctx, j); err != nil {
		s.logger.Error("failed to submit job",
			slog.String("job_id", j.ID().String()),
			slog.String("job_type", jobType),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *Scheduler) recentlyScheduled(key scheduledKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.scheduled[key]
	return ok
}

func (s *Scheduler) markScheduled(key scheduledKey, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[key] = at
}

func (s *Scheduler) forgetBefore(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, at := range s.scheduled {
		if at.Before(cutoff) {
			delete(s.scheduled, key)
		}
	}
}

func (s *Scheduler) sweepDue(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweep.IsZero() || now.Sub(s.lastSweep) >= s.config.RetentionInterval
}

func (s *Scheduler) markSwept(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSweep = at
}
