package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a transient failure (connection error, 5xx response)
// that [Retry] should attempt again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a [RetryableError]. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err carries a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Backoff configures [Retry].
type Backoff struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // wait before the second attempt; doubles afterwards
}

// DefaultBackoff is 3 attempts starting with a one second delay.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// Retry executes fn until it succeeds, fails with a non-retryable error, or
// the attempts are used up. The last error is returned, or ctx.Err() if the
// context ends while waiting.
func Retry(ctx context.Context, b Backoff, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff calls [Retry] with [DefaultBackoff].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, DefaultBackoff, fn)
}
