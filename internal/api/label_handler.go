package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/task-service/internal/api/shared"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/service"
)

// LabelHandler serves the user's labels.
type LabelHandler struct {
	labels service.LabelService
	logger *slog.Logger
}

// NewLabelHandler creates a LabelHandler.
func NewLabelHandler(labels service.LabelService, log *slog.Logger) *LabelHandler {
	if labels == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("label service cannot be nil for LabelHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &LabelHandler{
		labels: labels,
		logger: log.With(slog.String("component", "label_handler")),
	}
}

// CreateLabel handles POST /api/labels.
func (h *LabelHandler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	var req CreateLabelRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	label, err := h.labels.Create(r.Context(), userID, req.Name, req.Color)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create label")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, label)
}

// ListLabels handles GET /api/labels.
func (h *LabelHandler) ListLabels(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	labels, err := h.labels.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list labels")
		return
	}
	if labels == nil {
		labels = []domain.Label{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, labels)
}

// UpdateLabel handles PATCH /api/labels/{id}.
func (h *LabelHandler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	userID, labelID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	var req UpdateLabelRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	label, err := h.labels.Update(r.Context(), userID, labelID, service.LabelUpdate{Name: req.Name, Color: req.Color})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update label")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, label)
}

// DeleteLabel handles DELETE /api/labels/{id}.
func (h *LabelHandler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	userID, labelID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.labels.Delete(r.Context(), userID, labelID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete label")
		return
	}
	shared.RespondNoContent(w)
}
