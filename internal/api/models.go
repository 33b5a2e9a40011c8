package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/service"
)

// CreateTaskRequest is the body of POST /api/tasks. Field rules beyond
// presence are enforced by domain.NewTask.
type CreateTaskRequest struct {
	Title             string      `json:"title" validate:"required"`
	Description       string      `json:"description"`
	Priority          string      `json:"priority"`
	Category          string      `json:"category"`
	DueDate           *time.Time  `json:"due_date"`
	EstimatedDuration *int        `json:"estimated_duration"`
	LabelIDs          []uuid.UUID `json:"label_ids"`
}

// ToInput converts the request into service input.
func (req CreateTaskRequest) ToInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		Draft: domain.TaskDraft{
			Title:             req.Title,
			Description:       req.Description,
			Priority:          domain.TaskPriority(req.Priority),
			Category:          req.Category,
			DueDate:           req.DueDate,
			EstimatedDuration: req.EstimatedDuration,
		},
		LabelIDs: req.LabelIDs,
	}
}

// UpdateTaskRequest is the body of PATCH /api/tasks/{id}. Absent fields are
// left alone; clear_due_date and clear_estimated_duration unset a value.
type UpdateTaskRequest struct {
	Title                  *string      `json:"title"`
	Description            *string      `json:"description"`
	Status                 *string      `json:"status"`
	Priority               *string      `json:"priority"`
	Category               *string      `json:"category"`
	DueDate                *time.Time   `json:"due_date"`
	ClearDueDate           bool         `json:"clear_due_date"`
	EstimatedDuration      *int         `json:"estimated_duration"`
	ClearEstimatedDuration bool         `json:"clear_estimated_duration"`
	CompletionPercentage   *int         `json:"completion_percentage" validate:"omitempty,min=0,max=100"`
	LabelIDs               *[]uuid.UUID `json:"label_ids"`
}

// ToInput converts the request into service input.
func (req UpdateTaskRequest) ToInput() service.UpdateTaskInput {
	in := service.UpdateTaskInput{
		Patch: domain.TaskPatch{
			Title:                  req.Title,
			Description:            req.Description,
			Category:               req.Category,
			DueDate:                req.DueDate,
			ClearDueDate:           req.ClearDueDate,
			EstimatedDuration:      req.EstimatedDuration,
			ClearEstimatedDuration: req.ClearEstimatedDuration,
			CompletionPercentage:   req.CompletionPercentage,
		},
		LabelIDs: req.LabelIDs,
	}
	if req.Priority != nil {
		p := domain.TaskPriority(*req.Priority)
		in.Patch.Priority = &p
	}
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		in.Status = &s
	}
	return in
}

// BulkUpdateRequest is the body of POST /api/tasks/bulk-update.
type BulkUpdateRequest struct {
	TaskIDs []uuid.UUID       `json:"task_ids" validate:"required,min=1"`
	Updates domain.BulkUpdate `json:"updates"`
}

// ReportRequest is the body of POST /api/reports.
type ReportRequest struct {
	Period string `json:"period" validate:"omitempty,oneof=week month quarter"`
}

// JobAcceptedResponse acknowledges a scheduled background job.
type JobAcceptedResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

// CommentRequest is the body for creating or editing a comment.
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// CreateLabelRequest is the body of POST /api/labels.
type CreateLabelRequest struct {
	Name  string `json:"name"  validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateLabelRequest is the body of PATCH /api/labels/{id}.
type UpdateLabelRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

// AttachmentRequest is the body of POST /api/tasks/{id}/attachments.
// The file itself lives in external storage; only its reference is kept.
type AttachmentRequest struct {
	FileRef  string `json:"file_ref"  validate:"required"`
	Filename string `json:"filename"  validate:"required"`
	FileSize int64  `json:"file_size" validate:"min=0"`
}

// ActivityResponse lists a task's audit trail, newest first.
type ActivityResponse struct {
	TaskID     uuid.UUID          `json:"task_id"`
	Activities []*domain.Activity `json:"activities"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
