package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 4, BaseDelay: time.Millisecond, Logger: NewLogger()}

	attempts := 0
	err := r.Do(context.Background(), "flaky-op", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d; want 3", attempts)
	}
}

func TestRetryStopsAtCeiling(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLogger()}

	sentinel := errors.New("always fails")
	attempts := 0
	err := r.Do(context.Background(), "doomed-op", func() error {
		attempts++
		return sentinel
	})

	if attempts != 3 {
		t.Errorf("attempts = %d; want exactly the ceiling of 3", attempts)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("returned error must wrap the last failure, got %v", err)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 10, BaseDelay: time.Hour, Logger: NewLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, "cancelled-op", func() error {
			attempts++
			cancel()
			return errors.New("keeps failing")
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do kept sleeping through a cancelled context")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d; want 1 (no attempts after cancellation)", attempts)
	}
}
