package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/config"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/job"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/platform/postgres"
	"github.com/phrazzld/task-service/internal/redact"
	"github.com/spf13/cobra"
)

type configLoader func() (*config.Config, error)

// resources is what every command needs before it can do its work.
type resources struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	closer io.Closer
}

// bootstrap loads configuration, sets up logging and connects to the database.
func bootstrap(ctx context.Context, load configLoader) (*resources, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, closer, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to connect to database: %s", redact.Error(err))
	}
	log.Info("database connection established")

	return &resources{cfg: cfg, logger: log, db: db, closer: closer}, nil
}

func (rt *resources) close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Error("error closing database connection", slog.String("error", err.Error()))
	}
	_ = rt.closer.Close()
}

func serveCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the job runner and the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, load)
			if err != nil {
				return err
			}
			defer func() { _ = rt.closer.Close() }()

			if err := postgres.Migrate(ctx, rt.db, postgres.MigrateUp, rt.logger); err != nil {
				_ = rt.db.Close()
				return fmt.Errorf("failed to apply migrations: %w", err)
			}

			app, err := newApplication(rt.cfg, rt.logger, rt.db)
			if err != nil {
				_ = rt.db.Close()
				return err
			}
			// Run closes the database on the way out.
			return app.Run(ctx)
		},
	}
}

func migrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version]",
		Short: "Apply or inspect database migrations",
		Long: `Run a migration command against the configured database.

Without an argument, all pending migrations are applied.`,
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus, postgres.MigrateVersion},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := postgres.MigrateUp
			if len(args) == 1 {
				command = args[0]
			}

			rt, err := bootstrap(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer rt.close()

			return postgres.Migrate(cmd.Context(), rt.db, command, rt.logger)
		},
	}
}

func sweepCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Purge soft-deleted tasks past the retention grace period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer rt.close()

			app, err := newApplication(rt.cfg, rt.logger, rt.db)
			if err != nil {
				return err
			}
			return runSweep(cmd.Context(), app.jobDeps, cmd.OutOrStdout())
		},
	}
}

func runSweep(ctx context.Context, deps job.Deps, out io.Writer) error {
	sweep, err := job.NewRetentionJob(uuid.Nil, deps)
	if err != nil {
		return err
	}
	if err := sweep.Execute(ctx); err != nil {
		return fmt.Errorf("retention sweep failed after purging %d tasks: %w", sweep.Purged(), err)
	}
	_, err = fmt.Fprintf(out, "purged %d tasks\n", sweep.Purged())
	return err
}

func reportCmd(load configLoader) *cobra.Command {
	var (
		userID string
		period string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build and deliver a productivity report for one user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			p, err := domain.ParseReportPeriod(period)
			if err != nil {
				return err
			}

			rt, err := bootstrap(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer rt.close()

			app, err := newApplication(rt.cfg, rt.logger, rt.db)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), app.jobDeps, job.ReportPayload{UserID: id, Period: p}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "id of the user to report on")
	cmd.Flags().StringVarP(&period, "period", "p", string(domain.PeriodMonth), "report period: week, month or quarter")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runReport(ctx context.Context, deps job.Deps, payload job.ReportPayload, out io.Writer) error {
	report, err := job.NewReportJob(uuid.Nil, payload, deps)
	if err != nil {
		return err
	}
	execErr := job.RunNow(ctx, report)

	// A report that was built but not delivered is still printed.
	if data := report.Report(); data != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return err
		}
	}
	return execErr
}
