package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/task-service/internal/config"
	"github.com/phrazzld/task-service/internal/events"
	"github.com/phrazzld/task-service/internal/job"
	"github.com/phrazzld/task-service/internal/platform/analytics"
	"github.com/phrazzld/task-service/internal/platform/notification"
	"github.com/phrazzld/task-service/internal/platform/postgres"
	"github.com/phrazzld/task-service/internal/service"
	"github.com/phrazzld/task-service/internal/service/auth"
	"github.com/phrazzld/task-service/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	taskStore       store.TaskStore
	userStore       store.UserStore
	labelStore      store.LabelStore
	commentStore    store.CommentStore
	attachmentStore store.AttachmentStore
	activityStore   store.ActivityStore
	jobStore        *postgres.PostgresJobStore

	// Services
	jwtService        auth.JWTService
	taskService       service.TaskService
	commentService    service.CommentService
	labelService      service.LabelService
	attachmentService service.AttachmentService
	jobService        service.JobService

	// Background work
	eventEmitter *events.InMemoryEventEmitter
	jobRegistry  *job.Registry
	jobDeps      job.Deps
	jobRunner    *job.Runner
	scheduler    *job.Scheduler
}

// newApplication wires every store, service and job component. Nothing is
// started; Run does that.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	tasks := postgres.NewPostgresTaskStore(db, logger)
	app.taskStore = tasks
	app.userStore = postgres.NewPostgresUserStore(db)
	app.labelStore = postgres.NewPostgresLabelStore(db, logger)
	app.commentStore = postgres.NewPostgresCommentStore(db, logger)
	app.attachmentStore = postgres.NewPostgresAttachmentStore(db, logger)
	app.activityStore = postgres.NewPostgresActivityStore(db, logger)
	app.jobStore = postgres.NewPostgresJobStore(db, logger)

	// The emitter exists before the services that publish to it; its handler
	// is registered once the runner is built.
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		app.labelStore,
		app.activityStore,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.commentService, err = service.NewCommentService(
		app.taskStore,
		app.commentStore,
		app.userStore,
		app.activityStore,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment service: %w", err)
	}

	app.labelService, err = service.NewLabelService(app.labelStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create label service: %w", err)
	}

	app.attachmentService, err = service.NewAttachmentService(app.taskStore, app.attachmentStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment service: %w", err)
	}

	app.jobService, err = service.NewJobService(app.jobStore, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job service: %w", err)
	}

	app.setupJobs(tasks)

	logger.Info("application initialized")
	return app, nil
}

// setupJobs builds the job registry, runner and scheduler and connects the
// event emitter to the runner.
func (app *application) setupJobs(tasks job.TaskRepository) {
	cfg := app.config

	app.jobDeps = job.Deps{
		Tasks:    tasks,
		Users:    app.userStore,
		Notifier: notification.NewClient(cfg.Notification, app.logger),
		Reporter: analytics.NewClient(cfg.Analytics, app.logger),
		Bulk:     app.taskService,
		NotificationRetry: job.RetryPolicy{
			Base:        cfg.Notification.RetryBase(),
			MaxAttempts: cfg.Notification.MaxAttempts,
		},
		ReportRetry: job.RetryPolicy{
			Base:        cfg.Analytics.RetryBase(),
			MaxAttempts: cfg.Analytics.MaxAttempts,
		},
		Retention: job.RetentionPolicy{
			GracePeriod: cfg.Retention.GracePeriod(),
			BatchSize:   cfg.Retention.BatchSize,
		},
		Logger: app.logger,
	}

	app.jobRegistry = job.NewRegistry()
	job.RegisterBuiltins(app.jobRegistry, app.jobDeps)

	runnerConfig := job.DefaultRunnerConfig()
	runnerConfig.WorkerCount = cfg.Jobs.WorkerCount
	runnerConfig.QueueSize = cfg.Jobs.QueueSize
	runnerConfig.StuckJobAge = cfg.Jobs.StuckJobAge()
	app.jobRunner = job.NewRunner(app.jobStore, app.jobRegistry, runnerConfig, app.logger)
	app.jobRunner.SetErrorHandler(func(j job.Job, err error) {
		app.logger.Warn("background job failed",
			slog.String("job_id", j.ID().String()),
			slog.String("job_type", j.Type()),
			slog.String("error", err.Error()))
	})

	app.eventEmitter.RegisterHandler(job.NewEventHandler(app.jobRegistry, app.jobRunner, app.logger))

	schedulerConfig := job.DefaultSchedulerConfig()
	schedulerConfig.Interval = cfg.Jobs.ScanInterval()
	schedulerConfig.DispatchPerMinute = cfg.Jobs.DispatchRatePerMinute
	app.scheduler = job.NewScheduler(tasks, app.jobRegistry, app.jobRunner, schedulerConfig, nil, app.logger)
}

// Run starts the job runner and the scheduler, then serves HTTP until ctx
// is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.jobRunner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start job runner: %w", err)
	}

	schedCtx, stopScheduler := context.WithCancel(ctx)
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := app.scheduler.Run(schedCtx); err != nil && schedCtx.Err() == nil {
			app.logger.Error("job scheduler stopped", slog.String("error", err.Error()))
		}
	}()

	err := app.startHTTPServer(ctx, app.setupRouter())

	stopScheduler()
	select {
	case <-schedDone:
	case <-time.After(shutdownTimeout):
		app.logger.Warn("job scheduler did not stop in time")
	}
	app.cleanup()

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
