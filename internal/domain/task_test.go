package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestNewTask(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	task, err := NewTask(userID, TaskDraft{Title: "  abc  "}, fixedNow)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, userID, task.UserID)
	assert.Equal(t, "abc", task.Title, "title should be stored trimmed")
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, 0, task.CompletionPercentage)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, fixedNow, task.CreatedAt)
	assert.Equal(t, fixedNow, task.UpdatedAt)
}

func TestNewTask_Validation(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name  string
		user  uuid.UUID
		draft TaskDraft
		field string
	}{
		{
			name:  "missing owner",
			user:  uuid.Nil,
			draft: TaskDraft{Title: "Write report"},
			field: "user_id",
		},
		{
			name:  "short title",
			user:  userID,
			draft: TaskDraft{Title: "ab"},
			field: "title",
		},
		{
			name:  "short title after trimming",
			user:  userID,
			draft: TaskDraft{Title: "  ab   "},
			field: "title",
		},
		{
			name:  "invalid priority",
			user:  userID,
			draft: TaskDraft{Title: "Write report", Priority: "urgent"},
			field: "priority",
		},
		{
			name:  "due date in the past",
			user:  userID,
			draft: TaskDraft{Title: "Write report", DueDate: timePtr(fixedNow.Add(-time.Minute))},
			field: "due_date",
		},
		{
			name:  "zero estimated duration",
			user:  userID,
			draft: TaskDraft{Title: "Write report", EstimatedDuration: intPtr(0)},
			field: "estimated_duration",
		},
		{
			name: "estimate exceeds time until due",
			user: userID,
			draft: TaskDraft{
				Title:             "Write report",
				DueDate:           timePtr(fixedNow.Add(2 * time.Hour)),
				EstimatedDuration: intPtr(180),
			},
			field: "estimated_duration",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			task, err := NewTask(tc.user, tc.draft, fixedNow)
			require.Error(t, err)
			assert.Nil(t, task)
			assert.True(t, errors.Is(err, ErrValidation))

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestNewTask_EstimateFitsBeforeDue(t *testing.T) {
	t.Parallel()

	task, err := NewTask(uuid.New(), TaskDraft{
		Title:             "Write report",
		Priority:          PriorityHigh,
		DueDate:           timePtr(fixedNow.Add(3 * time.Hour)),
		EstimatedDuration: intPtr(120),
	}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, task.Priority)
	require.NotNil(t, task.EstimatedDuration)
	assert.Equal(t, 120, *task.EstimatedDuration)
}

func TestTask_IsOverdue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		due    *time.Time
		status TaskStatus
		want   bool
	}{
		{"no due date", nil, StatusPending, false},
		{"due in future", timePtr(fixedNow.Add(time.Hour)), StatusPending, false},
		{"due exactly now", timePtr(fixedNow), StatusPending, false},
		{"past due pending", timePtr(fixedNow.Add(-time.Hour)), StatusPending, true},
		{"past due on hold", timePtr(fixedNow.Add(-time.Hour)), StatusOnHold, true},
		{"past due completed", timePtr(fixedNow.Add(-time.Hour)), StatusCompleted, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			task := &Task{DueDate: tc.due, Status: tc.status}
			assert.Equal(t, tc.want, task.IsOverdue(fixedNow))
		})
	}
}

func TestTask_DaysUntilDue(t *testing.T) {
	t.Parallel()

	task := &Task{}
	_, ok := task.DaysUntilDue(fixedNow)
	assert.False(t, ok)

	task.DueDate = timePtr(fixedNow.Add(49 * time.Hour))
	days, ok := task.DaysUntilDue(fixedNow)
	assert.True(t, ok)
	assert.Equal(t, 2, days)

	task.DueDate = timePtr(fixedNow.Add(-time.Hour))
	days, ok = task.DaysUntilDue(fixedNow)
	assert.True(t, ok)
	assert.Equal(t, -1, days)
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	status, err := ParseTaskStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)

	_, err = ParseTaskStatus("done")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.ErrorIs(t, err, ErrValidation)

	priority, err := ParseTaskPriority("critical")
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, priority)
	assert.Equal(t, "P0 (Critical)", priority.Label())

	_, err = ParseTaskPriority("whenever")
	assert.ErrorIs(t, err, ErrInvalidPriority)
}
