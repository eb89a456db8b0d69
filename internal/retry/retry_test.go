package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	policy := Policy{MaxAttempts: 3, Delay: time.Millisecond}

	got, err := Do(context.Background(), policy, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if got != "ok" || attempts != 3 {
		t.Errorf("got %q after %d attempts", got, attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	policy := Policy{MaxAttempts: 3, Delay: time.Millisecond}
	boom := errors.New("boom")

	_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		attempts++
		return 0, boom
	})
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if !errors.Is(err, boom) {
		t.Errorf("final error should wrap the last failure, got %v", err)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	perm := errors.New("permanent")
	policy := Policy{
		MaxAttempts: 5,
		Delay:       time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, perm) },
	}

	_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		attempts++
		return 0, perm
	})
	if attempts != 1 {
		t.Errorf("permanent error should not be retried, got %d attempts", attempts)
	}
	if !errors.Is(err, perm) {
		t.Errorf("err = %v", err)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	policy := Policy{MaxAttempts: 10, Delay: time.Hour}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, policy, func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 before the cancelled backoff", attempts)
	}
}

func TestDoSingleAttemptPolicy(t *testing.T) {
	attempts := 0
	policy := Policy{MaxAttempts: 1}

	_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("nope")
	})
	if attempts != 1 || err == nil {
		t.Errorf("attempts = %d, err = %v", attempts, err)
	}
}
