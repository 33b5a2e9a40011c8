package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/task-service/internal/api/middleware"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Tasks       *TaskHandler
	Comments    *CommentHandler
	Labels      *LabelHandler
	Attachments *AttachmentHandler
	Jobs        *JobHandler
	Health      *HealthHandler
}

// RequestTimeout bounds the handling of one API request.
const RequestTimeout = 30 * time.Second

// NewRouter mounts every endpoint. Everything under /api requires a valid
// access token; /health does not.
func NewRouter(h Handlers, auth *middleware.AuthMiddleware, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewTraceMiddleware(log))
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", h.Health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(chimw.Timeout(RequestTimeout))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.Tasks.ListTasks)
			r.Post("/", h.Tasks.CreateTask)

			r.Post("/bulk-update", h.Jobs.BulkUpdate)
			r.Get("/statistics", h.Tasks.Statistics)
			r.Get("/overdue", h.Tasks.Overdue)
			r.Get("/due-soon", h.Tasks.DueSoon)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Tasks.GetTask)
				r.Patch("/", h.Tasks.UpdateTask)
				r.Put("/", h.Tasks.UpdateTask)
				r.Delete("/", h.Tasks.DeleteTask)

				r.Post("/mark-completed", h.Tasks.MarkCompleted)
				r.Post("/mark-in-progress", h.Tasks.MarkInProgress)
				r.Post("/mark-cancelled", h.Tasks.MarkCancelled)
				r.Post("/mark-on-hold", h.Tasks.MarkOnHold)
				r.Get("/activity", h.Tasks.Activity)

				r.Get("/comments", h.Comments.ListComments)
				r.Post("/comments", h.Comments.AddComment)
				r.Get("/attachments", h.Attachments.ListAttachments)
				r.Post("/attachments", h.Attachments.AddAttachment)
			})
		})

		r.Patch("/comments/{commentID}", h.Comments.EditComment)
		r.Delete("/comments/{commentID}", h.Comments.DeleteComment)
		r.Delete("/attachments/{attachmentID}", h.Attachments.DeleteAttachment)

		r.Route("/labels", func(r chi.Router) {
			r.Get("/", h.Labels.ListLabels)
			r.Post("/", h.Labels.CreateLabel)
			r.Patch("/{id}", h.Labels.UpdateLabel)
			r.Delete("/{id}", h.Labels.DeleteLabel)
		})

		r.Post("/reports", h.Jobs.RequestReport)
		r.Get("/jobs/{id}", h.Jobs.GetJob)
	})

	return r
}
