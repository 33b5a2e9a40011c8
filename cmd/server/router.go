package main

import (
	"net/http"

	"github.com/phrazzld/task-service/internal/api"
	"github.com/phrazzld/task-service/internal/api/middleware"
)

// setupRouter creates the API handlers from the application services and
// mounts them.
func (app *application) setupRouter() http.Handler {
	handlers := api.Handlers{
		Tasks:       api.NewTaskHandler(app.taskService, app.logger),
		Comments:    api.NewCommentHandler(app.commentService, app.logger),
		Labels:      api.NewLabelHandler(app.labelService, app.logger),
		Attachments: api.NewAttachmentHandler(app.attachmentService, app.logger),
		Jobs:        api.NewJobHandler(app.jobService, app.logger),
		Health:      api.NewHealthHandler(app.db, app.logger),
	}
	authMiddleware := middleware.NewAuthMiddleware(app.jwtService, app.logger)

	return api.NewRouter(handlers, authMiddleware, app.logger)
}
