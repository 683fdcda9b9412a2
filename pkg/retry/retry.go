// Package retry runs an operation under an explicit, testable retry policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BackoffFunc returns the wait after the given failed attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// Linear waits step, 2*step, 3*step, ...
func Linear(step time.Duration) BackoffFunc {
	return func(attempt int) time.Duration { return time.Duration(attempt) * step }
}

// Constant waits d after every attempt.
func Constant(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Default is three attempts with 1s, 2s linear backoff.
func Default() Policy {
	return Policy{MaxAttempts: 3, Backoff: Linear(time.Second)}
}

// Error reports the last failure and how many attempts were made.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, the policy is
// exhausted or ctx is done. Attempts run sequentially. Failures are returned
// as *Error.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	limit := p.MaxAttempts
	if limit <= 0 {
		limit = 1
	}

	var lastErr error
	for attempt := 1; attempt <= limit; attempt++ {
		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}

		var perm *permanent
		if errors.As(err, &perm) {
			return zero, &Error{Attempts: attempt, Err: perm.err}
		}
		lastErr = err
		if attempt == limit {
			break
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, &Error{Attempts: attempt, Err: errors.Join(err, lastErr)}
		}
	}
	return zero, &Error{Attempts: limit, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
