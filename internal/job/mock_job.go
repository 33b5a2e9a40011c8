package job

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// TypeMock is the job type of MockJob.
const TypeMock = "mock"

// MockJob is a configurable Job for tests.
type MockJob struct {
	JobID      uuid.UUID
	JobType    string
	JobPayload []byte
	JobStatus  Status
	JobResult  json.RawMessage
	ExecuteFn  func(ctx context.Context) error
}

// NewMockJob creates a MockJob whose Execute succeeds.
func NewMockJob(id uuid.UUID, payload []byte) *MockJob {
	return &MockJob{
		JobID:      id,
		JobType:    TypeMock,
		JobPayload: payload,
		JobStatus:  StatusPending,
		ExecuteFn:  func(ctx context.Context) error { return nil },
	}
}

// ID returns the job's unique identifier
func (j *MockJob) ID() uuid.UUID { return j.JobID }

// Type returns the job type identifier
func (j *MockJob) Type() string { return j.JobType }

// Payload returns the JSON-encoded job input
func (j *MockJob) Payload() []byte { return j.JobPayload }

// Status returns the current job status
func (j *MockJob) Status() Status { return j.JobStatus }

// Result returns the configured result.
func (j *MockJob) Result() json.RawMessage { return j.JobResult }

// Execute runs ExecuteFn.
func (j *MockJob) Execute(ctx context.Context) error { return j.ExecuteFn(ctx) }
