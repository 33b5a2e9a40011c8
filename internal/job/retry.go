package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default delivery retry settings: three attempts, waiting 60s then 120s.
const (
	DefaultRetryBase   = 60 * time.Second
	DefaultMaxAttempts = 3
)

// RetryPolicy bounds how often a collaborator call is attempted. The wait
// before attempt n+1 is Base doubled n-1 times.
type RetryPolicy struct {
	Base        time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy returns the policy used for notification delivery.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Base: DefaultRetryBase, MaxAttempts: DefaultMaxAttempts}
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.Base
	if base <= 0 {
		base = DefaultRetryBase
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))
}

// Next returns the wait before the attempt following the given number of
// failed attempts, or false once the attempts are used up.
func (p RetryPolicy) Next(failed int) (time.Duration, bool) {
	if failed < 1 {
		return 0, true
	}
	b := p.backoff()
	var wait time.Duration
	for i := 0; i < failed; i++ {
		d, stop := b.Next()
		if stop {
			return 0, false
		}
		wait = d
	}
	return wait, true
}

// RetryLaterError is returned by Execute when an attempt failed transiently
// and another is allowed. The job's payload already records the attempt, so
// whoever runs the job can execute it again after Delay without holding a
// worker in the meantime.
type RetryLaterError struct {
	Attempt int
	Delay   time.Duration
	Err     error
}

func (e *RetryLaterError) Error() string {
	return fmt.Sprintf("attempt %d failed, retrying in %s: %v", e.Attempt, e.Delay, e.Err)
}

func (e *RetryLaterError) Unwrap() error {
	return e.Err
}

// IsRetryLater reports whether err asks for the job to be run again, and
// returns the requested delay.
func IsRetryLater(err error) (*RetryLaterError, bool) {
	var later *RetryLaterError
	if errors.As(err, &later) {
		return later, true
	}
	return nil, false
}

// RunNow executes j in the calling goroutine, waiting out any requested
// retry delays. It is meant for one-shot commands; the Runner never blocks a
// worker this way. Cancellation is observed during every wait.
func RunNow(ctx context.Context, j Job) error {
	var delay time.Duration
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		return delay, false
	})

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := j.Execute(ctx)
		if later, ok := IsRetryLater(err); ok {
			delay = later.Delay
			return retry.RetryableError(err)
		}
		return err
	})
}
