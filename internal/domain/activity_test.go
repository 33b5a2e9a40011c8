package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotDiff(t *testing.T) {
	t.Parallel()

	task := newTestTask(t)
	task.Labels = []Label{{ID: uuid.New(), Name: "work"}}
	before := task.Snapshot()

	title := "Prepare slides"
	priority := PriorityCritical
	require.NoError(t, task.ApplyPatch(TaskPatch{Title: &title, Priority: &priority}, fixedNow.Add(time.Minute)))
	task.Labels = append(task.Labels, Label{ID: uuid.New(), Name: "alpha"})

	changes := before.Diff(task.Snapshot())

	require.Len(t, changes, 2, "unchanged title must not produce a change")
	assert.Equal(t, FieldChange{Field: ColumnPriority, OldValue: "medium", NewValue: "critical"}, changes[0])
	assert.Equal(t, FieldChange{Field: "labels", OldValue: "work", NewValue: "alpha, work"}, changes[1])
}

func TestSnapshotDiff_NoChanges(t *testing.T) {
	t.Parallel()

	task := newTestTask(t)
	before := task.Snapshot()
	task.UpdatedAt = fixedNow.Add(time.Hour)

	assert.Empty(t, before.Diff(task.Snapshot()))
}

func TestSnapshotOf_Subset(t *testing.T) {
	t.Parallel()

	task := newTestTask(t)
	snap := task.SnapshotOf(ColumnStatus, ColumnPriority, "unknown")

	_, ok := snap.Value("unknown")
	assert.False(t, ok)
	v, ok := snap.Value(ColumnStatus)
	assert.True(t, ok)
	assert.Equal(t, "pending", v)
	_, ok = snap.Value("title")
	assert.False(t, ok)
}

func TestNewActivity_CopiesActor(t *testing.T) {
	t.Parallel()

	actor := uuid.New()
	a := NewActivity(uuid.New(), "status", "pending", "completed", &actor, fixedNow)
	actor = uuid.Nil

	require.NotNil(t, a.ChangedBy)
	assert.NotEqual(t, uuid.Nil, *a.ChangedBy)

	system := NewActivity(uuid.New(), ActivityFieldCreated, "", "created", nil, fixedNow)
	assert.Nil(t, system.ChangedBy)
}
