package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// PostgresCommentStore implements store.CommentStore.
type PostgresCommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCommentStore creates a new PostgresCommentStore.
func NewPostgresCommentStore(db store.DBTX, logger *slog.Logger) *PostgresCommentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

var _ store.CommentStore = (*PostgresCommentStore)(nil)

// Author is resolved from the users mirror so activity text can name it.
const commentSelect = `
	SELECT c.id, c.task_id, c.author_id, COALESCE(u.username, ''), c.content, c.created_at, c.updated_at, c.is_deleted
	FROM task_comments c
	LEFT JOIN users u ON u.id = c.author_id`

// WithTx returns a store bound to tx.
func (s *PostgresCommentStore) WithTx(tx *sql.Tx) store.CommentStore {
	return &PostgresCommentStore{db: tx, logger: s.logger}
}

// Create inserts a comment.
func (s *PostgresCommentStore) Create(ctx context.Context, c *domain.Comment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_comments (id, task_id, author_id, content, created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.TaskID, c.AuthorID, c.Content, c.CreatedAt, c.UpdatedAt, c.IsDeleted,
	)
	if err != nil {
		log.Error("failed to create comment",
			slog.String("task_id", c.TaskID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create comment: %w", MapError(err))
	}
	return nil
}

// GetByID returns a non-deleted comment.
func (s *PostgresCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1 AND NOT c.is_deleted`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", MapError(err))
	}
	return c, nil
}

// UpdateContent persists an edit.
func (s *PostgresCommentStore) UpdateContent(ctx context.Context, c *domain.Comment) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE task_comments SET content = $1, updated_at = $2 WHERE id = $3 AND NOT is_deleted`,
		c.Content, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrCommentNotFound)
}

// SoftDelete flags the comment as deleted.
func (s *PostgresCommentStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE task_comments SET is_deleted = TRUE, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", MapError(err))
	}
	return checkRowsAffected(result, store.ErrCommentNotFound)
}

// ListByTask returns visible comments oldest first.
func (s *PostgresCommentStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, commentSelect+`
		WHERE c.task_id = $1 AND NOT c.is_deleted
		ORDER BY c.created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	comments := []*domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Author, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.IsDeleted); err != nil {
		return nil, err
	}
	return &c, nil
}
