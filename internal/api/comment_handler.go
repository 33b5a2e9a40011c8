package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/task-service/internal/api/shared"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/service"
)

// CommentHandler serves task comments.
type CommentHandler struct {
	comments service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments service.CommentService, log *slog.Logger) *CommentHandler {
	if comments == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("comment service cannot be nil for CommentHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CommentHandler{
		comments: comments,
		logger:   log.With(slog.String("component", "comment_handler")),
	}
}

// AddComment handles POST /api/tasks/{id}/comments.
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	var req CommentRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	comment, err := h.comments.Add(r.Context(), userID, taskID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add comment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, comment)
}

// ListComments handles GET /api/tasks/{id}/comments.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	comments, err := h.comments.List(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list comments")
		return
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, comments)
}

// EditComment handles PATCH /api/comments/{commentID}.
func (h *CommentHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	userID, commentID, ok := handleUserIDAndPathUUID(w, r, "commentID", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	var req CommentRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	comment, err := h.comments.Edit(r.Context(), userID, commentID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to edit comment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/comments/{commentID}.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, commentID, ok := handleUserIDAndPathUUID(w, r, "commentID", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), userID, commentID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete comment")
		return
	}
	shared.RespondNoContent(w)
}
