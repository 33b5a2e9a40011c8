package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/task-service/internal/api/shared"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/service"
)

// AttachmentHandler serves file references attached to tasks.
type AttachmentHandler struct {
	attachments service.AttachmentService
	logger      *slog.Logger
}

// NewAttachmentHandler creates an AttachmentHandler.
func NewAttachmentHandler(attachments service.AttachmentService, log *slog.Logger) *AttachmentHandler {
	if attachments == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("attachment service cannot be nil for AttachmentHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &AttachmentHandler{
		attachments: attachments,
		logger:      log.With(slog.String("component", "attachment_handler")),
	}
}

// AddAttachment handles POST /api/tasks/{id}/attachments.
func (h *AttachmentHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	var req AttachmentRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	a, err := h.attachments.Add(r.Context(), userID, taskID, service.AttachmentInput{
		FileRef:  req.FileRef,
		Filename: req.Filename,
		FileSize: req.FileSize,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add attachment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, a)
}

// ListAttachments handles GET /api/tasks/{id}/attachments.
func (h *AttachmentHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	list, err := h.attachments.List(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list attachments")
		return
	}
	if list == nil {
		list = []*domain.Attachment{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, list)
}

// DeleteAttachment handles DELETE /api/attachments/{attachmentID}.
func (h *AttachmentHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	userID, attachmentID, ok := handleUserIDAndPathUUID(w, r, "attachmentID", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.attachments.Delete(r.Context(), userID, attachmentID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete attachment")
		return
	}
	shared.RespondNoContent(w)
}
