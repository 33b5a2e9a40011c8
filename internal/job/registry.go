package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownJobType is returned when no factory is registered for a type.
var ErrUnknownJobType = errors.New("unknown job type")

// Factory rebuilds a job from its persisted form.
type Factory func(rec Record) (Job, error)

// Registry maps job types to factories. It is used to recreate jobs on
// recovery and to build jobs requested through events.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register installs the factory for jobType, replacing any previous one.
func (r *Registry) Register(jobType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[jobType] = f
}

// Build recreates the job described by rec.
func (r *Registry) Build(rec Record) (Job, error) {
	r.mu.RLock()
	f, ok := r.factories[rec.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobType, rec.Type)
	}
	j, err := f(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s job: %w", rec.Type, err)
	}
	return j, nil
}

// Create builds a new job of jobType with a fresh id.
func (r *Registry) Create(jobType string, payload any) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", jobType, err)
	}
	return r.Build(Record{ID: uuid.New(), Type: jobType, Payload: raw, Status: StatusPending})
}

// Types lists the registered job types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// decodePayload unmarshals a record payload, treating an empty payload as {}.
func decodePayload(rec Record, v any) error {
	if len(rec.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(rec.Payload, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
