package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/store"
)

// PostgresAttachmentStore implements store.AttachmentStore.
type PostgresAttachmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttachmentStore creates a new PostgresAttachmentStore.
func NewPostgresAttachmentStore(db store.DBTX, logger *slog.Logger) *PostgresAttachmentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAttachmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "attachment_store")),
	}
}

var _ store.AttachmentStore = (*PostgresAttachmentStore)(nil)

const attachmentColumns = `id, task_id, file_ref, filename, file_size, uploaded_by, uploaded_at`

// WithTx returns a store bound to tx.
func (s *PostgresAttachmentStore) WithTx(tx *sql.Tx) store.AttachmentStore {
	return &PostgresAttachmentStore{db: tx, logger: s.logger}
}

func (s *PostgresAttachmentStore) Create(ctx context.Context, a *domain.Attachment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_attachments (`+attachmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.TaskID, a.FileRef, a.Filename, a.FileSize, a.UploadedBy, a.UploadedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("failed to create attachment: %w", store.ErrTaskNotFound)
		}
		s.logger.Error("failed to create attachment",
			slog.String("task_id", a.TaskID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create attachment: %w", MapError(err))
	}
	return nil
}

func (s *PostgresAttachmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM task_attachments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", MapError(err))
	}
	return a, nil
}

func (s *PostgresAttachmentStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attachmentColumns+` FROM task_attachments WHERE task_id = $1 ORDER BY uploaded_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	attachments := []*domain.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (s *PostgresAttachmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM task_attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrAttachmentNotFound)
}

func scanAttachment(row rowScanner) (*domain.Attachment, error) {
	var (
		a          domain.Attachment
		uploadedBy uuid.NullUUID
	)
	if err := row.Scan(&a.ID, &a.TaskID, &a.FileRef, &a.Filename, &a.FileSize, &uploadedBy, &a.UploadedAt); err != nil {
		return nil, err
	}
	a.UploadedBy = uploadedBy.UUID
	return &a, nil
}
