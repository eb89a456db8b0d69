// Package retry provides a small fixed-delay retry policy that clients
// receive by injection, so retry behavior is testable apart from the calls
// it wraps.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded fixed-delay retry: up to MaxAttempts calls with
// Delay between them. Retryable decides whether an error is worth another
// attempt; a nil predicate retries every error.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
}

// Do runs op under the policy and returns its value. It stops early on
// success, on a non-retryable error, or when ctx is done while waiting
// between attempts.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
