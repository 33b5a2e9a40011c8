package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/job"
	"github.com/phrazzld/task-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobReader map[uuid.UUID]*job.Record

func (r fakeJobReader) GetByID(ctx context.Context, id uuid.UUID) (*job.Record, error) {
	rec, ok := r[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return rec, nil
}

func manyIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestJobService_RequestBulkUpdate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	high := domain.PriorityHigh
	valid := domain.BulkUpdate{Priority: &high}

	tests := []struct {
		name    string
		ids     []uuid.UUID
		update  domain.BulkUpdate
		wantErr bool
	}{
		{"no ids", nil, valid, true},
		{"too many ids", manyIDs(domain.MaxBulkTasks + 1), valid, true},
		{"no fields", manyIDs(2), domain.BulkUpdate{}, true},
		{"exactly the maximum", manyIDs(domain.MaxBulkTasks), valid, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			emitter := &fakeEmitter{}
			svc, err := NewJobService(fakeJobReader{}, emitter, discardLogger())
			require.NoError(t, err)

			id, err := svc.RequestBulkUpdate(context.Background(), userID, tc.ids, tc.update)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Empty(t, emitter.emitted())
				return
			}
			require.NoError(t, err)

			emitted := emitter.emitted()
			require.Len(t, emitted, 1)
			assert.Equal(t, id, emitted[0].ID)
			assert.Equal(t, job.TypeBulkUpdate, emitted[0].Type)

			var payload job.BulkPayload
			require.NoError(t, json.Unmarshal(emitted[0].Payload, &payload))
			assert.Equal(t, userID, payload.UserID)
			assert.Len(t, payload.TaskIDs, len(tc.ids))
		})
	}
}

func TestJobService_RequestReport(t *testing.T) {
	t.Parallel()

	emitter := &fakeEmitter{}
	svc, err := NewJobService(fakeJobReader{}, emitter, discardLogger())
	require.NoError(t, err)

	_, err = svc.RequestReport(context.Background(), uuid.New(), "decade")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.RequestReport(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	var payload job.ReportPayload
	require.NoError(t, json.Unmarshal(emitter.emitted()[0].Payload, &payload))
	assert.Equal(t, domain.PeriodMonth, payload.Period)

	emitter.err = errBoom
	_, err = svc.RequestReport(context.Background(), uuid.New(), domain.PeriodWeek)
	assert.ErrorIs(t, err, errBoom)
}

func TestJobService_Get(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	ownJob := &job.Record{ID: uuid.New(), Type: job.TypeBulkUpdate, Payload: json.RawMessage(`{"user_id":"` + owner.String() + `"}`)}
	systemJob := &job.Record{ID: uuid.New(), Type: job.TypeRetentionSweep, Payload: json.RawMessage(`{}`)}
	svc, err := NewJobService(fakeJobReader{ownJob.ID: ownJob, systemJob.ID: systemJob}, &fakeEmitter{}, discardLogger())
	require.NoError(t, err)
	ctx := context.Background()

	got, err := svc.Get(ctx, owner, ownJob.ID)
	require.NoError(t, err)
	assert.Equal(t, ownJob, got)

	_, err = svc.Get(ctx, uuid.New(), ownJob.ID)
	assert.ErrorIs(t, err, ErrNotOwned)

	_, err = svc.Get(ctx, owner, systemJob.ID)
	assert.ErrorIs(t, err, ErrNotOwned)

	_, err = svc.Get(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, store.ErrJobNotFound)
}
