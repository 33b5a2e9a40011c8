package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/task-service/internal/events"
	"github.com/phrazzld/task-service/internal/platform/logger"
)

// EventHandler turns job request events into jobs and submits them. The
// event ID becomes the job ID.
type EventHandler struct {
	registry  *Registry
	submitter Submitter
	logger    *slog.Logger
}

// NewEventHandler creates a handler that builds jobs with registry and hands
// them to submitter.
func NewEventHandler(registry *Registry, submitter Submitter, log *slog.Logger) *EventHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventHandler{
		registry:  registry,
		submitter: submitter,
		logger:    log.With(slog.String("component", "job_event_handler")),
	}
}

// HandleEvent builds the requested job and submits it.
func (h *EventHandler) HandleEvent(ctx context.Context, event *events.JobRequestEvent) error {
	log := logger.FromContextOrDefault(ctx, h.logger).With(
		slog.String("event_id", event.ID.String()),
		slog.String("job_type", event.Type),
	)

	j, err := h.registry.Build(Record{
		ID:        event.ID,
		Type:      event.Type,
		Payload:   event.Payload,
		Status:    StatusPending,
		CreatedAt: event.CreatedAt,
	})
	if err != nil {
		log.Error("failed to build job from event", slog.String("error", err.Error()))
		return err
	}

	if err := h.submitter.Submit(ctx, j); err != nil {
		log.Error("failed to submit job", slog.String("error", err.Error()))
		return fmt.Errorf("failed to submit %s job: %w", event.Type, err)
	}

	log.Debug("job submitted from event")
	return nil
}

var _ events.EventHandler = (*EventHandler)(nil)
