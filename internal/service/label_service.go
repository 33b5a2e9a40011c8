package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/store"
)

// LabelUpdate renames and/or recolors a label. Nil fields are left alone.
type LabelUpdate struct {
	Name  *string
	Color *string
}

// LabelService manages user-owned labels.
type LabelService interface {
	Create(ctx context.Context, userID uuid.UUID, name, color string) (*domain.Label, error)
	Update(ctx context.Context, userID, labelID uuid.UUID, in LabelUpdate) (*domain.Label, error)
	Delete(ctx context.Context, userID, labelID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]domain.Label, error)
}

type labelServiceImpl struct {
	labels store.LabelStore
	now    func() time.Time
	logger *slog.Logger
}

// NewLabelService creates a LabelService.
func NewLabelService(labels store.LabelStore, log *slog.Logger, opts ...Option) (LabelService, error) {
	if labels == nil {
		return nil, domain.NewValidationError("labels", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	o := buildOptions(opts)
	return &labelServiceImpl{
		labels: labels,
		now:    o.now,
		logger: log.With(slog.String("component", "label_service")),
	}, nil
}

// Create returns store.ErrLabelExists when the user already has the name.
func (s *labelServiceImpl) Create(ctx context.Context, userID uuid.UUID, name, color string) (*domain.Label, error) {
	label, err := domain.NewLabel(userID, name, color, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.labels.Create(ctx, label); err != nil {
		return nil, NewServiceError("label", "create", "failed to save label", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("label created",
		slog.String("label_id", label.ID.String()),
		slog.String("user_id", userID.String()))
	return label, nil
}

func (s *labelServiceImpl) Update(ctx context.Context, userID, labelID uuid.UUID, in LabelUpdate) (*domain.Label, error) {
	label, err := s.owned(ctx, userID, labelID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if in.Name != nil {
		if err := label.Rename(*in.Name, now); err != nil {
			return nil, err
		}
	}
	if in.Color != nil {
		if err := label.Recolor(*in.Color, now); err != nil {
			return nil, err
		}
	}
	if err := s.labels.Update(ctx, label); err != nil {
		return nil, NewServiceError("label", "update", "failed to save label", err)
	}
	return label, nil
}

// Delete removes the label and its assignments to tasks.
func (s *labelServiceImpl) Delete(ctx context.Context, userID, labelID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, labelID); err != nil {
		return err
	}
	if err := s.labels.Delete(ctx, labelID); err != nil {
		return NewServiceError("label", "delete", "failed to delete label", err)
	}
	return nil
}

func (s *labelServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Label, error) {
	labels, err := s.labels.ListByOwner(ctx, userID)
	if err != nil {
		return nil, NewServiceError("label", "list", "failed to list labels", err)
	}
	return labels, nil
}

func (s *labelServiceImpl) owned(ctx context.Context, userID, labelID uuid.UUID) (*domain.Label, error) {
	label, err := s.labels.GetByID(ctx, labelID)
	if err != nil {
		return nil, NewServiceError("label", "get", "failed to load label", err)
	}
	if label.UserID != userID {
		return nil, ErrNotOwned
	}
	return label, nil
}
