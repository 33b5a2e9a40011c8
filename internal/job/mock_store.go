package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrMockJobNotFound is returned by MockStore for unknown ids.
var ErrMockJobNotFound = fmt.Errorf("job not found")

// MockStore is an in-memory Store for tests.
type MockStore struct {
	mutex   sync.RWMutex
	records map[uuid.UUID]*Record
	now     func() time.Time

	SaveFn         func(ctx context.Context, j Job) error
	UpdateStatusFn func(ctx context.Context, id uuid.UUID, status Status, errorMsg string) error
}

// NewMockStore creates a MockStore with working default behavior.
func NewMockStore() *MockStore {
	s := &MockStore{
		records: make(map[uuid.UUID]*Record),
		now:     time.Now,
	}

	s.SaveFn = func(ctx context.Context, j Job) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		now := s.now()
		s.records[j.ID()] = &Record{
			ID:        j.ID(),
			Type:      j.Type(),
			Payload:   json.RawMessage(j.Payload()),
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}

	s.UpdateStatusFn = func(ctx context.Context, id uuid.UUID, status Status, errorMsg string) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		rec, ok := s.records[id]
		if !ok {
			return ErrMockJobNotFound
		}
		rec.Status = status
		rec.ErrorMessage = errorMsg
		rec.UpdatedAt = s.now()
		return nil
	}

	return s
}

// Put stores rec directly, bypassing Save.
func (s *MockStore) Put(rec Record) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	r := rec
	s.records[rec.ID] = &r
}

// Save persists a job in pending state.
func (s *MockStore) Save(ctx context.Context, j Job) error {
	return s.SaveFn(ctx, j)
}

// UpdateStatus sets the status of a job.
func (s *MockStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, errorMsg string) error {
	return s.UpdateStatusFn(ctx, id, status, errorMsg)
}

// SaveResult stores the job outcome.
func (s *MockStore) SaveResult(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrMockJobNotFound
	}
	rec.Result = append(json.RawMessage(nil), result...)
	return nil
}

// Reschedule returns a job to pending with a new payload and not-before time.
func (s *MockStore) Reschedule(ctx context.Context, id uuid.UUID, payload []byte, notBefore time.Time, errorMsg string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrMockJobNotFound
	}
	rec.Status = StatusPending
	rec.Payload = append(json.RawMessage(nil), payload...)
	nb := notBefore
	rec.NotBefore = &nb
	rec.ErrorMessage = errorMsg
	rec.UpdatedAt = s.now()
	return nil
}

// GetByID returns a copy of the stored record.
func (s *MockStore) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrMockJobNotFound
	}
	out := *rec
	return &out, nil
}

// ListPending returns pending records, oldest first.
func (s *MockStore) ListPending(ctx context.Context) ([]Record, error) {
	return s.list(StatusPending, 0), nil
}

// ListProcessing returns processing records not updated within olderThan.
func (s *MockStore) ListProcessing(ctx context.Context, olderThan time.Duration) ([]Record, error) {
	return s.list(StatusProcessing, olderThan), nil
}

func (s *MockStore) list(status Status, olderThan time.Duration) []Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cutoff := s.now().Add(-olderThan)
	var out []Record
	for _, rec := range s.records {
		if rec.Status != status {
			continue
		}
		if olderThan > 0 && !rec.UpdatedAt.Before(cutoff) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

var _ Store = (*MockStore)(nil)
