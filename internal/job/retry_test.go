package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Next(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{Base: time.Second, MaxAttempts: 3}

	tests := []struct {
		name     string
		failed   int
		wantWait time.Duration
		wantOK   bool
	}{
		{name: "after first failure", failed: 1, wantWait: time.Second, wantOK: true},
		{name: "after second failure", failed: 2, wantWait: 2 * time.Second, wantOK: true},
		{name: "attempts used up", failed: 3, wantOK: false},
		{name: "nothing failed yet", failed: 0, wantWait: 0, wantOK: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wait, ok := policy.Next(tt.failed)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantWait, wait)
		})
	}
}

func TestRetryPolicy_NextSingleAttempt(t *testing.T) {
	t.Parallel()

	_, ok := RetryPolicy{Base: time.Second, MaxAttempts: 1}.Next(1)
	assert.False(t, ok)
}

func TestRunNow(t *testing.T) {
	t.Parallel()

	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		results   []error
		wantCalls int
		wantErr   error
	}{
		{name: "first attempt succeeds", results: []error{nil}, wantCalls: 1},
		{
			name:      "retries until success",
			results:   []error{&RetryLaterError{Attempt: 1, Delay: time.Millisecond, Err: permanent}, nil},
			wantCalls: 2,
		},
		{name: "other errors stop immediately", results: []error{permanent, nil}, wantCalls: 1, wantErr: permanent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			j := NewMockJob(uuid.New(), nil)
			j.ExecuteFn = func(ctx context.Context) error {
				err := tt.results[calls]
				calls++
				return err
			}

			err := RunNow(context.Background(), j)
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRunNow_HonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	j := NewMockJob(uuid.New(), nil)
	j.ExecuteFn = func(ctx context.Context) error {
		calls++
		return &RetryLaterError{Attempt: calls, Delay: time.Hour, Err: errors.New("unavailable")}
	}

	done := make(chan error, 1)
	go func() { done <- RunNow(ctx, j) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestRetryPolicy_DefaultsAreSane(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()
	assert.Equal(t, 60*time.Second, p.Base)
	assert.Equal(t, 3, p.MaxAttempts)

	b := p.backoff()
	first, stop := b.Next()
	assert.False(t, stop)
	assert.Equal(t, 60*time.Second, first)
	second, stop := b.Next()
	assert.False(t, stop)
	assert.Equal(t, 120*time.Second, second)
	_, stop = b.Next()
	assert.True(t, stop)
}
