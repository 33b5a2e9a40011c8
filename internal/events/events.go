package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobRequestEvent asks for a background job to be created. Its ID becomes the
// job's ID, so a caller can hand it back to clients before the job runs.
type JobRequestEvent struct {
	// ID is the identifier of the event and of the resulting job
	ID uuid.UUID `json:"id"`

	// Type names the job type to create
	Type string `json:"type"`

	// Payload is the job input serialized as JSON
	Payload json.RawMessage `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *JobRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewJobRequestEvent creates an event for a job of jobType with the given payload.
func NewJobRequestEvent(jobType string, payload any) (*JobRequestEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &JobRequestEvent{
		ID:        uuid.New(),
		Type:      jobType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler processes job request events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *JobRequestEvent) error
}

// EventEmitter publishes job request events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *JobRequestEvent) error
}
