package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/task-service/internal/api/shared"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
	"github.com/phrazzld/task-service/internal/service"
)

// JobHandler accepts background work requests and reports job state.
type JobHandler struct {
	jobs   service.JobService
	logger *slog.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(jobs service.JobService, log *slog.Logger) *JobHandler {
	if jobs == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("job service cannot be nil for JobHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &JobHandler{
		jobs:   jobs,
		logger: log.With(slog.String("component", "job_handler")),
	}
}

// BulkUpdate handles POST /api/tasks/bulk-update. The update runs in the
// background; the response carries the job id.
func (h *JobHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req BulkUpdateRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	jobID, err := h.jobs.RequestBulkUpdate(r.Context(), userID, req.TaskIDs, req.Updates)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule bulk update")
		return
	}

	log.Info("bulk update accepted",
		slog.String("job_id", jobID.String()),
		slog.Int("task_count", len(req.TaskIDs)))
	shared.RespondWithJSON(w, r, http.StatusAccepted, JobAcceptedResponse{JobID: jobID, Status: "accepted"})
}

// RequestReport handles POST /api/reports.
func (h *JobHandler) RequestReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	var req ReportRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	jobID, err := h.jobs.RequestReport(r.Context(), userID, domain.ReportPeriod(req.Period))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule report")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, JobAcceptedResponse{JobID: jobID, Status: "accepted"})
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	userID, jobID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	rec, err := h.jobs.Get(r.Context(), userID, jobID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load job")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, rec)
}
