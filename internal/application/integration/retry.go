package integration

import (
	"context"
	"errors"
	"time"
)

// errRetryPending is returned by a retried operation that has not produced a
// result yet but did not fail either.
var errRetryPending = errors.New("integration: result pending")

// RetryPolicy bounds how often and how fast an operation is retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	// Delay is the wait before the second attempt
	Delay time.Duration
	// Backoff multiplies the delay after each attempt; values <= 1 keep it fixed
	Backoff float64

	// sleep is replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultGiftCardRetry polls ten times, one second apart.
func DefaultGiftCardRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 10, Delay: time.Second, Backoff: 1}
}

// Do calls fn until it returns nil, a non-retryable error, or attempts run
// out. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, retryable func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	delay := p.Delay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
		if p.Backoff > 1 {
			delay = time.Duration(float64(delay) * p.Backoff)
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
