// SPDX-License-Identifier: MPL-2.0

package undo

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
)

func TestStack_UnwindReverseOrder(t *testing.T) {
	t.Parallel()

	var order []string
	s := New(nil)
	for _, name := range []string{"first", "second", "third"} {
		s.Push(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := s.Unwind(context.Background()); err != nil {
		t.Fatalf("Unwind() error = %v", err)
	}

	want := []string{"third", "second", "first"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after Unwind, want 0", s.Len())
	}
}

func TestStack_UnwindRunsEachActionOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	s := New(nil)
	s.Push("count", func(context.Context) error {
		calls++
		return nil
	})

	_ = s.Unwind(context.Background())
	_ = s.Unwind(context.Background())

	if calls != 1 {
		t.Errorf("action ran %d times, want 1", calls)
	}
}

func TestStack_FailureDoesNotStopRemaining(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ran := false
	s := New(nil)
	s.Push("survivor", func(context.Context) error {
		ran = true
		return nil
	})
	s.Push("broken", func(context.Context) error { return boom })
	s.Push("panicky", func(context.Context) error { panic("kaboom") })

	err := s.Unwind(context.Background())
	if !ran {
		t.Error("action pushed before the failing ones did not run")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Unwind() error = %v, want it to wrap %v", err, boom)
	}

	var actionErr *ActionError
	if !errors.As(err, &actionErr) {
		t.Fatalf("Unwind() error should contain *ActionError, got %T", err)
	}
}

func TestStack_Release(t *testing.T) {
	t.Parallel()

	ran := false
	s := New(nil)
	s.Push("dropped", func(context.Context) error {
		ran = true
		return nil
	})
	s.Release()

	if err := s.Unwind(context.Background()); err != nil {
		t.Fatalf("Unwind() error = %v", err)
	}
	if ran {
		t.Error("released action should not run")
	}
}

func TestStack_UnwindIgnoresCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	s := New(nil)
	s.Push("check ctx", func(ctx context.Context) error {
		sawErr = ctx.Err()
		return nil
	})
	_ = s.Unwind(ctx)

	if sawErr != nil {
		t.Errorf("compensation saw cancelled context: %v", sawErr)
	}
}

func TestStack_ConcurrentPush(t *testing.T) {
	t.Parallel()

	const n = 64
	var ran atomic.Int32
	s := New(nil)

	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			s.Push("count", func(context.Context) error {
				ran.Add(1)
				return nil
			})
		})
	}
	wg.Wait()

	if s.Len() != n {
		t.Fatalf("Len() = %d, want %d", s.Len(), n)
	}
	if err := s.Unwind(t.Context()); err != nil {
		t.Fatalf("Unwind() error = %v", err)
	}
	if got := ran.Load(); got != n {
		t.Errorf("%d actions ran, want %d", got, n)
	}
}
