// SPDX-License-Identifier: MPL-2.0

package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of fake processes for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures a Runner.
	Option func(*Runner)

	// Runner spawns external programs and waits for them.
	Runner struct {
		execCommand ExecCommandFunc
		logger      *log.Logger
		stderr      io.Writer
	}

	// Output is the captured result of a program that ran to completion.
	Output struct {
		Stdout   []byte
		Stderr   []byte
		ExitCode int
		// Success reports whether the program exited with status zero.
		Success bool
	}

	// Stream is a running program whose stdout is read incrementally.
	Stream struct {
		cmd     *exec.Cmd
		stdout  io.ReadCloser
		stderr  *bytes.Buffer
		program string
		args    []string
		stage   Stage

		once    sync.Once
		waitErr error
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// WithLogger sets the logger spawned commands are reported to.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithStderr mirrors the stderr of every program to w in addition to
// capturing it. Used by the CLI to show image pull progress.
func WithStderr(w io.Writer) Option {
	return func(r *Runner) {
		r.stderr = w
	}
}

// NewRunner creates a Runner that uses os/exec by default.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		execCommand: exec.CommandContext,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Text returns stdout as a string with surrounding whitespace removed.
func (o *Output) Text() string {
	return strings.TrimSpace(string(o.Stdout))
}

// Run executes program and waits for it to exit. A non-zero exit returns
// both the captured Output and an ExternalToolError; a failure to start
// returns a nil Output.
func (r *Runner) Run(ctx context.Context, program string, args ...string) (*Output, error) {
	r.logger.Debug("exec", "program", program, "args", args)

	cmd := r.execCommand(ctx, program, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = r.stderrWriter(&stderr)

	err := cmd.Run()
	if err != nil && !isExitError(err) {
		return nil, &ExternalToolError{
			Program:  program,
			Args:     args,
			ExitCode: -1,
			Err:      err,
		}
	}

	out := &Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	out.Success = err == nil && out.ExitCode == 0
	if !out.Success {
		return out, &ExternalToolError{
			Program:  program,
			Args:     args,
			ExitCode: out.ExitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}
	return out, nil
}

// Start launches program with its stdout connected to the returned Stream.
// The caller must drain the stream and call Close (or Wait after reading to
// EOF) exactly as with os/exec pipes.
func (r *Runner) Start(ctx context.Context, program string, args ...string) (*Stream, error) {
	r.logger.Debug("exec stream", "program", program, "args", args)

	cmd := r.execCommand(ctx, program, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ExternalToolError{Program: program, Args: args, ExitCode: -1, Err: err}
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = r.stderrWriter(stderr)

	if err := cmd.Start(); err != nil {
		return nil, &ExternalToolError{Program: program, Args: args, ExitCode: -1, Err: err}
	}

	return &Stream{
		cmd:     cmd,
		stdout:  stdout,
		stderr:  stderr,
		program: program,
		args:    args,
	}, nil
}

func (r *Runner) stderrWriter(buf *bytes.Buffer) io.Writer {
	if r.stderr == nil {
		return buf
	}
	return io.MultiWriter(buf, r.stderr)
}

// WithStage sets the stage recorded on the error returned by Wait.
func (s *Stream) WithStage(stage Stage) *Stream {
	s.stage = stage
	return s
}

// Read reads from the program's stdout.
func (s *Stream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Stdout returns the program's stdout reader.
func (s *Stream) Stdout() io.Reader {
	return s.stdout
}

// Wait waits for the program to exit. It must only be called after stdout
// has been read to EOF. Subsequent calls return the first result.
func (s *Stream) Wait() error {
	s.once.Do(func() {
		err := s.cmd.Wait()
		if err == nil {
			return
		}
		code := -1
		if s.cmd.ProcessState != nil {
			code = s.cmd.ProcessState.ExitCode()
		}
		s.waitErr = &ExternalToolError{
			Stage:    s.stage,
			Program:  s.program,
			Args:     s.args,
			ExitCode: code,
			Stderr:   strings.TrimSpace(s.stderr.String()),
			Err:      err,
		}
	})
	return s.waitErr
}

// Close releases the read side of the pipe, which unblocks a program still
// writing, and waits for it to exit.
func (s *Stream) Close() error {
	_ = s.stdout.Close()
	return s.Wait()
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
