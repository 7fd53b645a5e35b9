// SPDX-License-Identifier: MPL-2.0

package process

import (
	"errors"
	"fmt"
	"strings"
)

// maxArgsSummary bounds the argument text carried in error messages.
const maxArgsSummary = 120

// ErrExternalTool is the sentinel wrapped by ExternalToolError.
var ErrExternalTool = errors.New("external tool failed")

type (
	// Stage names the pipeline step a program was run for (pull, export, ...).
	Stage string

	// ExternalToolError is returned when a program cannot be started or exits
	// with a non-zero status.
	ExternalToolError struct {
		// Stage is the caller-assigned step name; empty when not assigned.
		Stage Stage
		// Program is the executable that was run.
		Program string
		// Args are the program arguments.
		Args []string
		// ExitCode is the exit status, or -1 if the process never started
		// or was terminated by a signal.
		ExitCode int
		// Stderr is the captured standard error, trimmed.
		Stderr string
		// Err is the underlying error from os/exec.
		Err error
	}
)

// Error implements the error interface.
func (e *ExternalToolError) Error() string {
	var msg strings.Builder
	if e.Stage != "" {
		msg.WriteString(string(e.Stage))
		msg.WriteString(": ")
	}
	if e.ExitCode < 0 {
		fmt.Fprintf(&msg, "could not run %s", e.commandLine())
		if e.Err != nil {
			fmt.Fprintf(&msg, ": %v", e.Err)
		}
		return msg.String()
	}
	fmt.Fprintf(&msg, "%s exited with status %d", e.commandLine(), e.ExitCode)
	if e.Stderr != "" {
		msg.WriteString(": ")
		msg.WriteString(lastLine(e.Stderr))
	}
	return msg.String()
}

// Unwrap exposes both the sentinel and the os/exec cause.
func (e *ExternalToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalTool}
	}
	return []error{ErrExternalTool, e.Err}
}

// ArgsSummary returns the arguments joined by spaces, truncated for display.
func (e *ExternalToolError) ArgsSummary() string {
	s := strings.Join(e.Args, " ")
	if len(s) > maxArgsSummary {
		return s[:maxArgsSummary] + "..."
	}
	return s
}

func (e *ExternalToolError) commandLine() string {
	if len(e.Args) == 0 {
		return e.Program
	}
	return e.Program + " " + e.ArgsSummary()
}

// WithStage returns a copy of err with Stage set when err is an
// ExternalToolError; any other error is returned unchanged.
func WithStage(err error, stage Stage) error {
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) {
		return err
	}
	staged := *toolErr
	staged.Stage = stage
	return &staged
}

// StageOf reports the stage recorded on the first ExternalToolError in
// err's chain.
func StageOf(err error) (Stage, bool) {
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) {
		return "", false
	}
	return toolErr.Stage, true
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
