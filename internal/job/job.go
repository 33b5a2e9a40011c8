package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a background job.
type Status string

// Possible job status values
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job type identifiers.
const (
	TypeDueSoonReminder     = "due_soon_reminder"
	TypeOverdueNotification = "overdue_notification"
	TypeBulkUpdate          = "bulk_update"
	TypeRetentionSweep      = "retention_sweep"
	TypeTaskReport          = "task_report"
)

// Job is a unit of background work.
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Payload returns the JSON-encoded job input
	Payload() []byte

	// Status returns the current job status
	Status() Status

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// Resulter is implemented by jobs that report an outcome, such as
// {"status":"skipped","reason":"already_sent"}, after Execute returns.
type Resulter interface {
	Result() json.RawMessage
}

// Record is the persisted form of a job.
type Record struct {
	ID           uuid.UUID       `json:"id"`
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload"`
	Status       Status          `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error,omitempty"`
	NotBefore    *time.Time      `json:"not_before,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Store persists jobs and their state transitions.
type Store interface {
	// Save persists a new job in pending state.
	Save(ctx context.Context, job Job) error

	// UpdateStatus sets the status and error message of a job.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, errorMsg string) error

	// SaveResult stores the outcome reported by a finished job.
	SaveResult(ctx context.Context, id uuid.UUID, result json.RawMessage) error

	// GetByID returns a job record or store.ErrJobNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// ListPending returns jobs that were never picked up, oldest first.
	ListPending(ctx context.Context) ([]Record, error)

	// Reschedule returns a job to pending with an updated payload. The
	// runner does not pick it up again before notBefore.
	Reschedule(ctx context.Context, id uuid.UUID, payload []byte, notBefore time.Time, errorMsg string) error

	// ListProcessing returns jobs in processing state. When olderThan is
	// non-zero only jobs not updated within that duration are returned.
	ListProcessing(ctx context.Context, olderThan time.Duration) ([]Record, error)
}

// base carries the identity shared by every concrete job.
type base struct {
	id      uuid.UUID
	jobType string
	payload []byte
	status  Status
	result  json.RawMessage
}

func newBase(id uuid.UUID, jobType string, payload any) (base, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return base{}, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return base{id: id, jobType: jobType, payload: raw, status: StatusPending}, nil
}

// ID returns the job's unique identifier
func (b *base) ID() uuid.UUID { return b.id }

// Type returns the job type identifier
func (b *base) Type() string { return b.jobType }

// Payload returns the JSON-encoded job input
func (b *base) Payload() []byte { return b.payload }

// Status returns the current job status
func (b *base) Status() Status { return b.status }

// Result returns the outcome recorded by Execute.
func (b *base) Result() json.RawMessage { return b.result }

func (b *base) setPayload(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.payload = raw
	return nil
}

func (b *base) setResult(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	b.result = raw
}

// Outcome is the result payload written by the notification jobs.
type Outcome struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Outcome statuses.
const (
	OutcomeSent      = "sent"
	OutcomeRetrying  = "retrying"
	OutcomeSkipped   = "skipped"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Outcome reasons.
const (
	ReasonAlreadySentOrCompleted = "already_sent/completed"
	ReasonDueNotSoon             = "due_not_soon"
	ReasonNoDueDate              = "no_due_date"
	ReasonNotOverdue             = "not_overdue"
	ReasonTaskNotFound           = "task_not_found"
	ReasonUserNotFound           = "user_not_found"
	ReasonDeliveryFailed         = "delivery_failed"
)
