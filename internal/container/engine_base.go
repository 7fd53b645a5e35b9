// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wslget/wslget/internal/issue"
	"github.com/wslget/wslget/internal/process"
)

// ErrEmptyContainerID is returned when `create` succeeds without printing an ID.
var ErrEmptyContainerID = errors.New("container engine returned an empty container id")

type (
	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides the common implementation for CLI-based container
	// engines. Docker and Podman accept the same pull/create/export/rm syntax, so
	// every operation lives here; only Available differs per engine.
	BaseCLIEngine struct {
		name       string // Engine name for error messages (e.g., "docker", "podman")
		binaryPath string
		runner     *process.Runner
		logger     *log.Logger
		retryDelay time.Duration
	}
)

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithRunner sets the process runner used to invoke the engine binary.
func WithRunner(r *process.Runner) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.runner = r
	}
}

// WithBinaryPath overrides the binary resolved from PATH.
func WithBinaryPath(path string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.binaryPath = path
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *log.Logger) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.logger = l
	}
}

// withRetryDelay shortens pull backoff in tests.
func withRetryDelay(d time.Duration) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.retryDelay = d
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath: binaryPath,
		retryDelay: pullBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runner == nil {
		e.runner = process.NewRunner()
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// --- Accessor Methods ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// --- Argument Builders ---

// PullArgs constructs arguments for an image pull.
//
// Generated command: <binary> pull <image>
func (e *BaseCLIEngine) PullArgs(image ImageTag) []string {
	return []string{"pull", string(image)}
}

// CreateArgs constructs arguments for materializing a stopped container.
//
// Generated command: <binary> create <image>
func (e *BaseCLIEngine) CreateArgs(image ImageTag) []string {
	return []string{"create", string(image)}
}

// ExportArgs constructs arguments for exporting a container filesystem.
//
// Generated command: <binary> export <id>
func (e *BaseCLIEngine) ExportArgs(id ContainerID) []string {
	return []string{"export", string(id)}
}

// RemoveArgs constructs arguments for removing a container.
//
// Generated command: <binary> rm <id>
func (e *BaseCLIEngine) RemoveArgs(id ContainerID) []string {
	return []string{"rm", string(id)}
}

// --- Engine Methods (shared by Docker and Podman) ---

// Pull fetches image, retrying transient registry and daemon failures.
func (e *BaseCLIEngine) Pull(ctx context.Context, image ImageTag) error {
	err := RetryWithBackoff(ctx, pullAttempts, e.retryDelay, func(attempt int) (bool, error) {
		_, err := e.runner.Run(ctx, e.binaryPath, e.PullArgs(image)...)
		if err == nil {
			return false, nil
		}
		err = process.WithStage(err, StagePull)
		if IsTransientError(err) && attempt+1 < pullAttempts {
			e.logger.Warn("transient pull failure, retrying", "image", image, "attempt", attempt+1, "err", err)
			return true, err
		}
		return false, err
	})
	if err != nil {
		return pullImageError(e.name, image, err)
	}
	return nil
}

// Create materializes a stopped container from image and returns its ID.
// The ID is the trimmed standard output of `create`.
func (e *BaseCLIEngine) Create(ctx context.Context, image ImageTag) (ContainerID, error) {
	out, err := e.runner.Run(ctx, e.binaryPath, e.CreateArgs(image)...)
	if err != nil {
		return "", createContainerError(e.name, image, process.WithStage(err, StageCreate))
	}
	id := ContainerID(out.Text())
	if id == "" {
		return "", process.WithStage(&process.ExternalToolError{
			Program:  e.binaryPath,
			Args:     e.CreateArgs(image),
			ExitCode: out.ExitCode,
			Stderr:   string(out.Stderr),
			Err:      ErrEmptyContainerID,
		}, StageCreate)
	}
	return id, nil
}

// Export starts `export` and returns its standard output as a stream. The
// caller must drain and Close the stream; Close reports a non-zero exit.
func (e *BaseCLIEngine) Export(ctx context.Context, id ContainerID) (*process.Stream, error) {
	s, err := e.runner.Start(ctx, e.binaryPath, e.ExportArgs(id)...)
	if err != nil {
		return nil, process.WithStage(err, StageExport)
	}
	return s.WithStage(StageExport), nil
}

// Remove removes a container.
func (e *BaseCLIEngine) Remove(ctx context.Context, id ContainerID) error {
	if _, err := e.runner.Run(ctx, e.binaryPath, e.RemoveArgs(id)...); err != nil {
		return process.WithStage(err, StageRemove)
	}
	return nil
}

// --- Actionable Error Helpers ---

// pullImageError creates an actionable error for image pull failures.
func pullImageError(engine string, image ImageTag, cause error) error {
	ctx := issue.NewErrorContext().
		WithOperation("pull image").
		WithResource(string(image))

	ctx.WithSuggestion("Check the image name and tag (try: " + engine + " search <name>)")
	ctx.WithSuggestion("Verify network access to the registry")
	ctx.WithSuggestion("Ensure the " + engine + " daemon is running")
	ctx.WithIssue(issue.ImagePullFailedId)

	return ctx.Wrap(cause).BuildError()
}

// createContainerError creates an actionable error for container create failures.
func createContainerError(engine string, image ImageTag, cause error) error {
	ctx := issue.NewErrorContext().
		WithOperation("create container").
		WithResource(string(image))

	ctx.WithSuggestion("Verify the image was pulled (try: " + engine + " images)")
	ctx.WithSuggestion("Check free disk space for the engine storage driver")

	return ctx.Wrap(cause).BuildError()
}
