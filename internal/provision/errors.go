// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"
)

var (
	// ErrGuestCommand is the sentinel error wrapped by GuestCommandError.
	ErrGuestCommand = errors.New("guest command failed")

	// ErrInvalidUserName is returned for names useradd would reject.
	ErrInvalidUserName = errors.New("invalid user name")

	// ErrInvalidUID is returned when `id -u` prints something other than a number.
	ErrInvalidUID = errors.New("invalid uid")

	// ErrInvalidPassword is returned for passwords containing NUL bytes or
	// line breaks.
	ErrInvalidPassword = errors.New("password must not contain NUL bytes or line breaks")
)

// GuestCommandError is returned when a command run inside the distribution
// exits non-zero. Command never contains a password.
type GuestCommandError struct {
	Step     State
	Command  string
	ExitCode uint32
}

func (e *GuestCommandError) Error() string {
	return fmt.Sprintf("%s: %q exited with status %d", e.Step, e.Command, e.ExitCode)
}

func (e *GuestCommandError) Unwrap() error { return ErrGuestCommand }
