package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/job"
	"github.com/phrazzld/task-service/internal/service"
)

// MockTaskService implements service.TaskService with overridable functions.
// Unset functions return zero values.
type MockTaskService struct {
	CreateFn     func(ctx context.Context, userID uuid.UUID, in service.CreateTaskInput) (*domain.Task, error)
	GetFn        func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	UpdateFn     func(ctx context.Context, userID, taskID uuid.UUID, in service.UpdateTaskInput) (*domain.Task, error)
	TransitionFn func(ctx context.Context, userID, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error)
	SoftDeleteFn func(ctx context.Context, userID, taskID uuid.UUID) error
	ListFn       func(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) (*service.TaskPage, error)
	PagedFn      func(ctx context.Context, userID uuid.UUID, limit, offset int) (*service.TaskPage, error)
	StatisticsFn func(ctx context.Context, userID uuid.UUID) (*domain.TaskStatistics, error)
	ActivityFn   func(ctx context.Context, userID, taskID uuid.UUID, limit int) ([]*domain.Activity, error)
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) Create(ctx context.Context, userID uuid.UUID, in service.CreateTaskInput) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userID, in)
	}
	return nil, nil
}

func (m *MockTaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, taskID)
	}
	return nil, nil
}

func (m *MockTaskService) Update(ctx context.Context, userID, taskID uuid.UUID, in service.UpdateTaskInput) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, userID, taskID, in)
	}
	return nil, nil
}

func (m *MockTaskService) Transition(ctx context.Context, userID, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	if m.TransitionFn != nil {
		return m.TransitionFn(ctx, userID, taskID, status)
	}
	return nil, nil
}

func (m *MockTaskService) Complete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return m.Transition(ctx, userID, taskID, domain.StatusCompleted)
}

func (m *MockTaskService) Start(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return m.Transition(ctx, userID, taskID, domain.StatusInProgress)
}

func (m *MockTaskService) Cancel(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return m.Transition(ctx, userID, taskID, domain.StatusCancelled)
}

func (m *MockTaskService) Hold(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return m.Transition(ctx, userID, taskID, domain.StatusOnHold)
}

func (m *MockTaskService) SoftDelete(ctx context.Context, userID, taskID uuid.UUID) error {
	if m.SoftDeleteFn != nil {
		return m.SoftDeleteFn(ctx, userID, taskID)
	}
	return nil
}

func (m *MockTaskService) List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) (*service.TaskPage, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, filter)
	}
	return &service.TaskPage{Tasks: []*domain.Task{}}, nil
}

func (m *MockTaskService) Overdue(ctx context.Context, userID uuid.UUID, limit, offset int) (*service.TaskPage, error) {
	if m.PagedFn != nil {
		return m.PagedFn(ctx, userID, limit, offset)
	}
	return &service.TaskPage{Tasks: []*domain.Task{}}, nil
}

func (m *MockTaskService) DueSoon(ctx context.Context, userID uuid.UUID, limit, offset int) (*service.TaskPage, error) {
	return m.Overdue(ctx, userID, limit, offset)
}

func (m *MockTaskService) Statistics(ctx context.Context, userID uuid.UUID) (*domain.TaskStatistics, error) {
	if m.StatisticsFn != nil {
		return m.StatisticsFn(ctx, userID)
	}
	return &domain.TaskStatistics{}, nil
}

func (m *MockTaskService) Activity(ctx context.Context, userID, taskID uuid.UUID, limit int) ([]*domain.Activity, error) {
	if m.ActivityFn != nil {
		return m.ActivityFn(ctx, userID, taskID, limit)
	}
	return nil, nil
}

func (m *MockTaskService) ApplyBulkUpdate(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID, update domain.BulkUpdate) (int, error) {
	return 0, nil
}

// MockCommentService implements service.CommentService.
type MockCommentService struct {
	AddFn    func(ctx context.Context, userID, taskID uuid.UUID, content string) (*domain.Comment, error)
	EditFn   func(ctx context.Context, userID, commentID uuid.UUID, content string) (*domain.Comment, error)
	DeleteFn func(ctx context.Context, userID, commentID uuid.UUID) error
	ListFn   func(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.Comment, error)
}

func (m *MockCommentService) Add(ctx context.Context, userID, taskID uuid.UUID, content string) (*domain.Comment, error) {
	if m.AddFn != nil {
		return m.AddFn(ctx, userID, taskID, content)
	}
	return nil, nil
}

func (m *MockCommentService) Edit(ctx context.Context, userID, commentID uuid.UUID, content string) (*domain.Comment, error) {
	if m.EditFn != nil {
		return m.EditFn(ctx, userID, commentID, content)
	}
	return nil, nil
}

func (m *MockCommentService) Delete(ctx context.Context, userID, commentID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, commentID)
	}
	return nil
}

func (m *MockCommentService) List(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.Comment, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, taskID)
	}
	return nil, nil
}

// MockLabelService implements service.LabelService.
type MockLabelService struct {
	CreateFn func(ctx context.Context, userID uuid.UUID, name, color string) (*domain.Label, error)
	UpdateFn func(ctx context.Context, userID, labelID uuid.UUID, in service.LabelUpdate) (*domain.Label, error)
	DeleteFn func(ctx context.Context, userID, labelID uuid.UUID) error
	ListFn   func(ctx context.Context, userID uuid.UUID) ([]domain.Label, error)
}

func (m *MockLabelService) Create(ctx context.Context, userID uuid.UUID, name, color string) (*domain.Label, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userID, name, color)
	}
	return nil, nil
}

func (m *MockLabelService) Update(ctx context.Context, userID, labelID uuid.UUID, in service.LabelUpdate) (*domain.Label, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, userID, labelID, in)
	}
	return nil, nil
}

func (m *MockLabelService) Delete(ctx context.Context, userID, labelID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, labelID)
	}
	return nil
}

func (m *MockLabelService) List(ctx context.Context, userID uuid.UUID) ([]domain.Label, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID)
	}
	return nil, nil
}

// MockAttachmentService implements service.AttachmentService.
type MockAttachmentService struct {
	AddFn    func(ctx context.Context, userID, taskID uuid.UUID, in service.AttachmentInput) (*domain.Attachment, error)
	ListFn   func(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.Attachment, error)
	DeleteFn func(ctx context.Context, userID, attachmentID uuid.UUID) error
}

func (m *MockAttachmentService) Add(ctx context.Context, userID, taskID uuid.UUID, in service.AttachmentInput) (*domain.Attachment, error) {
	if m.AddFn != nil {
		return m.AddFn(ctx, userID, taskID, in)
	}
	return nil, nil
}

func (m *MockAttachmentService) List(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.Attachment, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, taskID)
	}
	return nil, nil
}

func (m *MockAttachmentService) Delete(ctx context.Context, userID, attachmentID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, attachmentID)
	}
	return nil
}

// MockJobService implements service.JobService.
type MockJobService struct {
	RequestBulkUpdateFn func(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID, update domain.BulkUpdate) (uuid.UUID, error)
	RequestReportFn     func(ctx context.Context, userID uuid.UUID, period domain.ReportPeriod) (uuid.UUID, error)
	GetFn               func(ctx context.Context, userID, jobID uuid.UUID) (*job.Record, error)
}

func (m *MockJobService) RequestBulkUpdate(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID, update domain.BulkUpdate) (uuid.UUID, error) {
	if m.RequestBulkUpdateFn != nil {
		return m.RequestBulkUpdateFn(ctx, userID, taskIDs, update)
	}
	return uuid.Nil, nil
}

func (m *MockJobService) RequestReport(ctx context.Context, userID uuid.UUID, period domain.ReportPeriod) (uuid.UUID, error) {
	if m.RequestReportFn != nil {
		return m.RequestReportFn(ctx, userID, period)
	}
	return uuid.Nil, nil
}

func (m *MockJobService) Get(ctx context.Context, userID, jobID uuid.UUID) (*job.Record, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, jobID)
	}
	return nil, nil
}

var (
	_ service.CommentService    = (*MockCommentService)(nil)
	_ service.LabelService      = (*MockLabelService)(nil)
	_ service.AttachmentService = (*MockAttachmentService)(nil)
	_ service.JobService        = (*MockJobService)(nil)
)
