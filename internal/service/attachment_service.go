package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/store"
)

// AttachmentInput describes an already stored file. The reference is opaque.
type AttachmentInput struct {
	FileRef  string
	Filename string
	FileSize int64
}

// AttachmentService records file references on tasks the user owns.
type AttachmentService interface {
	Add(ctx context.Context, userID, taskID uuid.UUID, in AttachmentInput) (*domain.Attachment, error)
	List(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.Attachment, error)
	Delete(ctx context.Context, userID, attachmentID uuid.UUID) error
}

type attachmentServiceImpl struct {
	tasks       store.TaskStore
	attachments store.AttachmentStore
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttachmentService creates an AttachmentService.
func NewAttachmentService(
	tasks store.TaskStore,
	attachments store.AttachmentStore,
	log *slog.Logger,
	opts ...Option,
) (AttachmentService, error) {
	if tasks == nil || attachments == nil {
		return nil, domain.NewValidationError("stores", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	o := buildOptions(opts)
	return &attachmentServiceImpl{
		tasks:       tasks,
		attachments: attachments,
		now:         o.now,
		logger:      log.With(slog.String("component", "attachment_service")),
	}, nil
}

func (s *attachmentServiceImpl) Add(ctx context.Context, userID, taskID uuid.UUID, in AttachmentInput) (*domain.Attachment, error) {
	if err := s.checkTaskOwner(ctx, userID, taskID); err != nil {
		return nil, err
	}
	a, err := domain.NewAttachment(taskID, userID, in.FileRef, in.Filename, in.FileSize, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.attachments.Create(ctx, a); err != nil {
		return nil, NewServiceError("attachment", "add", "failed to save attachment", err)
	}
	return a, nil
}

func (s *attachmentServiceImpl) List(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.Attachment, error) {
	if err := s.checkTaskOwner(ctx, userID, taskID); err != nil {
		return nil, err
	}
	list, err := s.attachments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("attachment", "list", "failed to list attachments", err)
	}
	return list, nil
}

func (s *attachmentServiceImpl) Delete(ctx context.Context, userID, attachmentID uuid.UUID) error {
	a, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return NewServiceError("attachment", "delete", "failed to load attachment", err)
	}
	if err := s.checkTaskOwner(ctx, userID, a.TaskID); err != nil {
		return err
	}
	if err := s.attachments.Delete(ctx, a.ID); err != nil {
		return NewServiceError("attachment", "delete", "failed to delete attachment", err)
	}
	return nil
}

func (s *attachmentServiceImpl) checkTaskOwner(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return NewServiceError("attachment", "load_task", "failed to load task", err)
	}
	if task.UserID != userID {
		return ErrNotOwned
	}
	return nil
}
