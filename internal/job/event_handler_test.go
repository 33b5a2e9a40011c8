package job

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandler_SubmitsJobWithEventID(t *testing.T) {
	t.Parallel()

	f := newFixture()
	registry := NewRegistry()
	RegisterBuiltins(registry, f.deps())
	sub := &recordingSubmitter{}
	h := NewEventHandler(registry, sub, discardLogger())

	emitter := events.NewInMemoryEventEmitter(discardLogger())
	emitter.RegisterHandler(h)

	event, err := events.NewJobRequestEvent(TypeDueSoonReminder, TaskPayload{TaskID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, emitter.EmitEvent(context.Background(), event))

	require.Len(t, sub.jobs, 1)
	assert.Equal(t, event.ID, sub.jobs[0].ID())
	assert.Equal(t, TypeDueSoonReminder, sub.jobs[0].Type())
}

func TestEventHandler_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture()
	registry := NewRegistry()
	RegisterBuiltins(registry, f.deps())

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		h := NewEventHandler(registry, &recordingSubmitter{}, discardLogger())
		event, err := events.NewJobRequestEvent("nope", nil)
		require.NoError(t, err)
		assert.ErrorIs(t, h.HandleEvent(context.Background(), event), ErrUnknownJobType)
	})

	t.Run("submit failure", func(t *testing.T) {
		t.Parallel()
		h := NewEventHandler(registry, &recordingSubmitter{err: ErrQueueFull}, discardLogger())
		event, err := events.NewJobRequestEvent(TypeRetentionSweep, struct{}{})
		require.NoError(t, err)
		err = h.HandleEvent(context.Background(), event)
		assert.True(t, errors.Is(err, ErrQueueFull))
	})
}
