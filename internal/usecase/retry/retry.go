// Package retry runs an operation under a bounded attempt policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMaxAttempts is returned when a policy allows no attempts.
var ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

// Policy bounds how an operation is retried.
type Policy struct {
	MaxAttempts int
	// Delay is the fixed pause between attempts. Zero retries immediately.
	Delay time.Duration
	// OnRetry, if set, is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// Do invokes op until it succeeds or MaxAttempts is reached, returning the
// last error. Every error is retried. A done context stops the loop; the
// attempt in flight still counts.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts <= 0 {
		return zero, fmt.Errorf("%w: %d", ErrInvalidMaxAttempts, p.MaxAttempts)
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, fmt.Errorf("attempt %d: %w", attempt-1, lastErr)
			}
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if !sleep(ctx, p.Delay) {
			return zero, fmt.Errorf("attempt %d: %w", attempt, lastErr)
		}
	}

	return zero, fmt.Errorf("after %d attempts: %w", p.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
