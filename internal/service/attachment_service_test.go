package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentService(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	task := f.seed(t, f.owner, nil)
	attachments := newFakeAttachmentStore()
	svc, err := NewAttachmentService(f.tasks, attachments, discardLogger(), fixedClock())
	require.NoError(t, err)
	ctx := context.Background()

	a, err := svc.Add(ctx, f.owner, task.ID, AttachmentInput{FileRef: "s3://bucket/key", Filename: "plan.pdf", FileSize: 2048})
	require.NoError(t, err)
	assert.Equal(t, f.owner, a.UploadedBy)
	assert.Equal(t, testNow, a.UploadedAt)

	_, err = svc.Add(ctx, f.owner, task.ID, AttachmentInput{FileRef: "ref", Filename: "x", FileSize: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Add(ctx, uuid.New(), task.ID, AttachmentInput{FileRef: "ref", Filename: "x"})
	assert.ErrorIs(t, err, ErrNotOwned)

	list, err := svc.List(ctx, f.owner, task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), a.ID), ErrNotOwned)
	require.NoError(t, svc.Delete(ctx, f.owner, a.ID))

	list, err = svc.List(ctx, f.owner, task.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
