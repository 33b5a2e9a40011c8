package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/job"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// PostgresJobStore implements job.Store on the background_jobs table.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ job.Store = (*PostgresJobStore)(nil)

const jobColumns = `id, type, payload, status, result, error_message, not_before, created_at, updated_at`

// Save persists a job in pending state.
func (s *PostgresJobStore) Save(ctx context.Context, j job.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload := j.Payload()
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	now := s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO background_jobs (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		j.ID(), j.Type(), payload, j.Status(), now, now,
	)
	if err != nil {
		log.Error("failed to save job",
			slog.String("job_id", j.ID().String()),
			slog.String("job_type", j.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save job: %w", MapError(err))
	}
	return nil
}

// UpdateStatus sets the status and error message of a job.
func (s *PostgresJobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status job.Status, errorMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE background_jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4`,
		status, errorMsg, s.now(), id,
	)
	if err != nil {
		log.Error("failed to update job status",
			slog.String("job_id", id.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update job status: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrJobNotFound)
}

// SaveResult stores the outcome reported by a finished job.
func (s *PostgresJobStore) SaveResult(ctx context.Context, id uuid.UUID, resultPayload json.RawMessage) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE background_jobs SET result = $1, updated_at = $2 WHERE id = $3`,
		[]byte(resultPayload), s.now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to save job result: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrJobNotFound)
}

// Reschedule returns a job to pending with an updated payload and the time
// before which it must not run again.
func (s *PostgresJobStore) Reschedule(ctx context.Context, id uuid.UUID, payload []byte, notBefore time.Time, errorMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(payload) == 0 {
		payload = []byte("{}")
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE background_jobs
		SET status = $1, payload = $2, not_before = $3, error_message = $4, updated_at = $5
		WHERE id = $6`,
		job.StatusPending, payload, notBefore.UTC(), errorMsg, s.now(), id,
	)
	if err != nil {
		log.Error("failed to reschedule job",
			slog.String("job_id", id.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to reschedule job: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrJobNotFound)
}

// GetByID returns a job record.
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*job.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM background_jobs WHERE id = $1`, id)
	rec, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", MapError(err))
	}
	return rec, nil
}

// ListPending returns jobs that were never picked up.
func (s *PostgresJobStore) ListPending(ctx context.Context) ([]job.Record, error) {
	return s.listByStatus(ctx, job.StatusPending, 0)
}

// ListProcessing returns jobs in processing state.
func (s *PostgresJobStore) ListProcessing(ctx context.Context, olderThan time.Duration) ([]job.Record, error) {
	return s.listByStatus(ctx, job.StatusProcessing, olderThan)
}

func (s *PostgresJobStore) listByStatus(ctx context.Context, status job.Status, olderThan time.Duration) ([]job.Record, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + jobColumns + ` FROM background_jobs WHERE status = $1`
	args := []any{status}
	if olderThan > 0 {
		query += ` AND updated_at < $2`
		args = append(args, s.now().Add(-olderThan))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query jobs by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query jobs by status: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []job.Record
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*job.Record, error) {
	var (
		rec       job.Record
		payload   []byte
		result    []byte
		status    string
		notBefore sql.NullTime
	)
	if err := row.Scan(&rec.ID, &rec.Type, &payload, &status, &result, &rec.ErrorMessage, &notBefore, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if notBefore.Valid {
		t := notBefore.Time
		rec.NotBefore = &t
	}
	rec.Status = job.Status(status)
	rec.Payload = json.RawMessage(payload)
	if len(result) > 0 {
		rec.Result = json.RawMessage(result)
	}
	return &rec, nil
}
