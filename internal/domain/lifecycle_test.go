package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTask(t *testing.T) *Task {
	t.Helper()
	task, err := NewTask(uuid.New(), TaskDraft{Title: "Prepare slides"}, fixedNow)
	require.NoError(t, err)
	return task
}

func TestTransition_Completed(t *testing.T) {
	t.Parallel()

	task := newTestTask(t)
	task.CompletionPercentage = 40
	later := fixedNow.Add(time.Hour)

	columns, err := task.Transition(StatusCompleted, later)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{ColumnStatus, ColumnCompletedAt, ColumnCompletionPercentage}, columns)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, 100, task.CompletionPercentage)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, later, *task.CompletedAt)
	assert.Equal(t, later, task.UpdatedAt)
}

func TestTransition_NonCompletedLeavesPercentage(t *testing.T) {
	t.Parallel()

	task := newTestTask(t)
	task.CompletionPercentage = 35

	columns, err := task.Transition(StatusInProgress, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{ColumnStatus}, columns)
	assert.Equal(t, 35, task.CompletionPercentage)
	assert.Nil(t, task.CompletedAt)
}

func TestTransition_ReentryOnlyTouchesUpdatedAt(t *testing.T) {
	t.Parallel()

	task := newTestTask(t)
	_, err := task.Transition(StatusCompleted, fixedNow)
	require.NoError(t, err)
	firstCompletion := *task.CompletedAt

	later := fixedNow.Add(2 * time.Hour)
	columns, err := task.Transition(StatusCompleted, later)
	require.NoError(t, err)

	assert.Empty(t, columns)
	assert.Equal(t, firstCompletion, *task.CompletedAt)
	assert.Equal(t, later, task.UpdatedAt)
}

func TestTransition_LeavingCompletedKeepsCompletedAt(t *testing.T) {
	t.Parallel()

	task := newTestTask(t)
	_, err := task.Transition(StatusCompleted, fixedNow)
	require.NoError(t, err)

	_, err = task.Transition(StatusInProgress, fixedNow.Add(time.Minute))
	require.NoError(t, err)
	assert.NotNil(t, task.CompletedAt)
	assert.Equal(t, 100, task.CompletionPercentage)
}

func TestTransition_InvalidStatus(t *testing.T) {
	t.Parallel()

	task := newTestTask(t)
	before := *task

	_, err := task.Transition("archived", fixedNow.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, before, *task, "task must be unchanged")
}

func TestApplyPatch(t *testing.T) {
	t.Parallel()

	t.Run("applies valid fields", func(t *testing.T) {
		t.Parallel()
		task := newTestTask(t)
		title := "  Prepare keynote "
		priority := PriorityHigh
		pct := 60

		err := task.ApplyPatch(TaskPatch{
			Title:                &title,
			Priority:             &priority,
			CompletionPercentage: &pct,
			DueDate:              timePtr(fixedNow.Add(48 * time.Hour)),
		}, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "Prepare keynote", task.Title)
		assert.Equal(t, PriorityHigh, task.Priority)
		assert.Equal(t, 60, task.CompletionPercentage)
		require.NotNil(t, task.DueDate)
	})

	t.Run("rejects out of range percentage and leaves task intact", func(t *testing.T) {
		t.Parallel()
		task := newTestTask(t)
		before := *task
		pct := 101
		title := "Changed title"

		err := task.ApplyPatch(TaskPatch{Title: &title, CompletionPercentage: &pct}, fixedNow)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, before, *task)
	})

	t.Run("estimate checked against due date in the same patch", func(t *testing.T) {
		t.Parallel()
		task := newTestTask(t)
		before := *task

		err := task.ApplyPatch(TaskPatch{
			DueDate:           timePtr(fixedNow.Add(time.Hour)),
			EstimatedDuration: intPtr(90),
		}, fixedNow)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, before, *task)
	})

	t.Run("estimate alone ignores stored due date", func(t *testing.T) {
		t.Parallel()
		task := newTestTask(t)
		task.DueDate = timePtr(fixedNow.Add(-24 * time.Hour))

		require.NoError(t, task.ApplyPatch(TaskPatch{EstimatedDuration: intPtr(90)}, fixedNow))
		require.NotNil(t, task.EstimatedDuration)
		assert.Equal(t, 90, *task.EstimatedDuration)
	})

	t.Run("clears due date", func(t *testing.T) {
		t.Parallel()
		task := newTestTask(t)
		task.DueDate = timePtr(fixedNow.Add(time.Hour))

		require.NoError(t, task.ApplyPatch(TaskPatch{ClearDueDate: true}, fixedNow))
		assert.Nil(t, task.DueDate)
	})
}
