package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/api/shared"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/service"
)

// TaskHandler serves the task endpoints.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks service.TaskService, log *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("task service cannot be nil for TaskHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: log.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, req.ToInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateTask handles PATCH and PUT /api/tasks/{id}. Both are partial.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, taskID, req.ToInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id}. The task is soft-deleted.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.tasks.SoftDelete(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}
	shared.RespondNoContent(w)
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	filter, err := parseTaskFilter(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.tasks.List(r.Context(), userID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, page)
}

// MarkCompleted handles POST /api/tasks/{id}/mark-completed.
func (h *TaskHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tasks.Complete)
}

// MarkInProgress handles POST /api/tasks/{id}/mark-in-progress.
func (h *TaskHandler) MarkInProgress(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tasks.Start)
}

// MarkCancelled handles POST /api/tasks/{id}/mark-cancelled.
func (h *TaskHandler) MarkCancelled(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tasks.Cancel)
}

// MarkOnHold handles POST /api/tasks/{id}/mark-on-hold.
func (h *TaskHandler) MarkOnHold(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tasks.Hold)
}

type transitionFunc func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

func (h *TaskHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	task, err := fn(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Statistics handles GET /api/tasks/statistics.
func (h *TaskHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	stats, err := h.tasks.Statistics(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// Overdue handles GET /api/tasks/overdue.
func (h *TaskHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	h.pagedListing(w, r, h.tasks.Overdue)
}

// DueSoon handles GET /api/tasks/due-soon.
func (h *TaskHandler) DueSoon(w http.ResponseWriter, r *http.Request) {
	h.pagedListing(w, r, h.tasks.DueSoon)
}

type pagedListingFunc func(ctx context.Context, userID uuid.UUID, limit, offset int) (*service.TaskPage, error)

func (h *TaskHandler) pagedListing(w http.ResponseWriter, r *http.Request, fn pagedListingFunc) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	limit, offset, err := pageParams(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := fn(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, page)
}

// Activity handles GET /api/tasks/{id}/activity.
func (h *TaskHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	limit, err := queryInt(r.URL.Query(), "limit")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	activities, err := h.tasks.Activity(r.Context(), userID, taskID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load activity")
		return
	}
	if activities == nil {
		activities = []*domain.Activity{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ActivityResponse{TaskID: taskID, Activities: activities})
}
