// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	permanent := errors.New("permanent")
	tests := []struct {
		name      string
		attempts  int
		op        func(attempt int) (bool, error)
		wantCalls int
		wantErr   error
	}{
		{
			name:      "succeeds first attempt",
			attempts:  3,
			op:        func(int) (bool, error) { return false, nil },
			wantCalls: 1,
		},
		{
			name:     "retries then succeeds",
			attempts: 5,
			op: func(attempt int) (bool, error) {
				if attempt < 2 {
					return true, errors.New("transient")
				}
				return false, nil
			},
			wantCalls: 3,
		},
		{
			name:      "permanent error exits immediately",
			attempts:  5,
			op:        func(int) (bool, error) { return false, permanent },
			wantCalls: 1,
			wantErr:   permanent,
		},
		{
			name:      "exhaustion returns last error",
			attempts:  3,
			op:        func(int) (bool, error) { return true, permanent },
			wantCalls: 3,
			wantErr:   permanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := RetryWithBackoff(t.Context(), tt.attempts, time.Millisecond, func(attempt int) (bool, error) {
				calls++
				return tt.op(attempt)
			})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoff_CancelDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(t.Context())
	calls := 0
	start := time.Now()
	err := RetryWithBackoff(ctx, 5, time.Hour, func(attempt int) (bool, error) {
		calls++
		cancel()
		return true, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if time.Since(start) > time.Minute {
		t.Fatal("backoff wait was not interrupted")
	}
}

func TestRetryWithBackoff_BackoffTiming(t *testing.T) {
	t.Parallel()
	start := time.Now()
	_ = RetryWithBackoff(t.Context(), 3, 50*time.Millisecond, func(int) (bool, error) {
		return true, errors.New("retry")
	})
	// 50ms (0->1) + 100ms (1->2)
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("expected at least 100ms of backoff, got %v", elapsed)
	}
}
