// SPDX-License-Identifier: MPL-2.0

package undo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

type (
	// ActionFunc releases one resource. It receives a context that is never
	// cancelled, so compensations still run after the caller was interrupted.
	ActionFunc func(ctx context.Context) error

	// Stack holds compensating actions in the order they were pushed.
	// Push, Len, Release and Unwind may be called from multiple goroutines;
	// actions themselves run on the goroutine calling Unwind.
	Stack struct {
		mu      sync.Mutex
		actions []action
		logger  *log.Logger
	}

	// ActionError records a compensating action that failed.
	ActionError struct {
		Name string
		Err  error
	}

	action struct {
		name string
		fn   ActionFunc
	}
)

// New creates an empty stack. Failed actions are reported to logger as
// warnings; a nil logger discards them.
func New(logger *log.Logger) *Stack {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Stack{logger: logger}
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return fmt.Sprintf("undo %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ActionError) Unwrap() error { return e.Err }

// Push registers fn to run when the stack is unwound.
func (s *Stack) Push(name string, fn ActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action{name: name, fn: fn})
}

// Len returns the number of pending actions.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions)
}

// Release drops every pending action without running it.
func (s *Stack) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = nil
}

// Unwind runs every pending action in reverse push order and empties the
// stack, so each action runs at most once. A failing action does not stop
// the remaining ones; failures are logged as warnings and returned joined.
func (s *Stack) Unwind(ctx context.Context) error {
	s.mu.Lock()
	actions := s.actions
	s.actions = nil
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(actions) - 1; i >= 0; i-- {
		a := actions[i]
		s.logger.Debug("running compensation", "action", a.name)
		if err := runAction(ctx, a); err != nil {
			s.logger.Warn("compensation failed", "action", a.name, "error", err)
			errs = append(errs, &ActionError{Name: a.name, Err: err})
		}
	}
	return errors.Join(errs...)
}

// runAction converts a panicking compensation into an error so one broken
// action cannot skip the rest of the stack.
func runAction(ctx context.Context, a action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.fn(ctx)
}
