package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// CommentService manages comments on tasks. Adding and deleting a comment
// each record an activity in the same transaction.
type CommentService interface {
	Add(ctx context.Context, userID, taskID uuid.UUID, content string) (*domain.Comment, error)
	Edit(ctx context.Context, userID, commentID uuid.UUID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, userID, commentID uuid.UUID) error
	List(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.Comment, error)
}

type commentServiceImpl struct {
	tasks    store.TaskStore
	comments store.CommentStore
	users    store.UserStore
	recorder *ActivityRecorder
	now      func() time.Time
	logger   *slog.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(
	tasks store.TaskStore,
	comments store.CommentStore,
	users store.UserStore,
	activities store.ActivityStore,
	log *slog.Logger,
	opts ...Option,
) (CommentService, error) {
	if tasks == nil || comments == nil || users == nil || activities == nil {
		return nil, domain.NewValidationError("stores", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	o := buildOptions(opts)
	return &commentServiceImpl{
		tasks:    tasks,
		comments: comments,
		users:    users,
		recorder: NewActivityRecorder(activities, log),
		now:      o.now,
		logger:   log.With(slog.String("component", "comment_service")),
	}, nil
}

func (s *commentServiceImpl) Add(ctx context.Context, userID, taskID uuid.UUID, content string) (*domain.Comment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, NewServiceError("comment", "add", "failed to load author", err)
	}

	var comment *domain.Comment
	err = store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		if err := s.checkTaskOwner(ctx, s.tasks.WithTx(tx), userID, taskID); err != nil {
			return err
		}

		c, err := domain.NewComment(taskID, userID, author.DisplayName(), content, s.now())
		if err != nil {
			return err
		}
		if err := s.comments.WithTx(tx).Create(ctx, c); err != nil {
			return NewServiceError("comment", "add", "failed to save comment", err)
		}
		if err := s.recorder.WithTx(tx).RecordComment(ctx, c); err != nil {
			return NewServiceError("comment", "add", "failed to record comment", err)
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("comment added",
		slog.String("comment_id", comment.ID.String()),
		slog.String("task_id", taskID.String()))
	return comment, nil
}

func (s *commentServiceImpl) Edit(ctx context.Context, userID, commentID uuid.UUID, content string) (*domain.Comment, error) {
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, NewServiceError("comment", "edit", "failed to load comment", err)
	}
	if c.AuthorID != userID {
		return nil, ErrNotOwned
	}
	if err := c.Edit(content, s.now()); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateContent(ctx, c); err != nil {
		return nil, NewServiceError("comment", "edit", "failed to save comment", err)
	}
	return c, nil
}

func (s *commentServiceImpl) Delete(ctx context.Context, userID, commentID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txComments := s.comments.WithTx(tx)
		c, err := txComments.GetByID(ctx, commentID)
		if err != nil {
			return NewServiceError("comment", "delete", "failed to load comment", err)
		}
		if c.AuthorID != userID {
			return ErrNotOwned
		}
		if err := txComments.SoftDelete(ctx, c.ID); err != nil {
			return NewServiceError("comment", "delete", "failed to delete comment", err)
		}
		if err := s.recorder.WithTx(tx).RecordCommentDeleted(ctx, c, userID, s.now()); err != nil {
			return NewServiceError("comment", "delete", "failed to record deletion", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("comment deleted", slog.String("comment_id", commentID.String()))
	return nil
}

func (s *commentServiceImpl) List(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.Comment, error) {
	if err := s.checkTaskOwner(ctx, s.tasks, userID, taskID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("comment", "list", "failed to list comments", err)
	}
	return comments, nil
}

func (s *commentServiceImpl) checkTaskOwner(ctx context.Context, tasks store.TaskStore, userID, taskID uuid.UUID) error {
	task, err := tasks.GetByID(ctx, taskID)
	if err != nil {
		return NewServiceError("comment", "load_task", "failed to load task", err)
	}
	if task.UserID != userID {
		return ErrNotOwned
	}
	return nil
}
