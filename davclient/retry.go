package davclient

import (
	"context"
	"time"
)

// DefaultAttempts is the number of times an operation is tried in total
const DefaultAttempts = 3

// RetryPolicy bounds how often a network operation is attempted.
// Attempts counts every execution including the first one, so the default
// of 3 means one initial attempt plus at most two retries.
type RetryPolicy struct {
	Attempts int
	// Delay is slept between attempts
	Delay time.Duration
	// OnRetry, if set, is called before each retry with the attempt that failed
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy tries each operation three times without delay
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts}
}

// Retry runs op until it succeeds or the policy is exhausted, and returns the
// last error unmodified. op always runs at least once. Errors that describe
// an answer rather than a fault (not found, duplicate, invalid config) and a
// done context end the loop early.
func Retry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if attempt == attempts || !retryable(ctx, err) {
			return err
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
		if policy.Delay > 0 {
			timer := time.NewTimer(policy.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}
	}
	return err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch KindOf(err) {
	case KindConfig, KindDuplicate, KindNotExist, KindPartialUpdate:
		return false
	}
	return true
}
