// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"

	"github.com/wslget/wslget/internal/process"
)

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"

	// StagePull is the stage name for image pulls.
	StagePull process.Stage = "pull"
	// StageCreate is the stage name for materializing a container.
	StageCreate process.Stage = "create"
	// StageExport is the stage name for exporting a container filesystem.
	StageExport process.Stage = "export"
	// StageRemove is the stage name for removing a container.
	StageRemove process.Stage = "remove"
)

type (
	// Engine defines the container operations used to extract a root filesystem.
	Engine interface {
		// Name returns the engine name (docker or podman)
		Name() string
		// Available checks if the engine is available on the system
		Available() bool
		// Version returns the server version reported by the engine
		Version(ctx context.Context) (string, error)
		// Pull fetches image from its registry
		Pull(ctx context.Context, image ImageTag) error
		// Create materializes a stopped container from image and returns its ID
		Create(ctx context.Context, image ImageTag) (ContainerID, error)
		// Export streams the container filesystem as a tar archive
		Export(ctx context.Context, id ContainerID) (*process.Stream, error)
		// Remove removes a container
		Remove(ctx context.Context, id ContainerID) error
	}

	// EngineType identifies the container engine type
	EngineType string

	// ImageTag is a full image reference such as "ubuntu:20.04".
	ImageTag string

	// ContainerID is the identifier printed by `create`.
	ContainerID string

	// ErrEngineNotAvailable is returned when a container engine is not available
	ErrEngineNotAvailable struct {
		Engine string
		Reason string
	}

	// engineFactory builds an engine of one type; swapped in tests.
	engineFactory func(opts ...BaseCLIEngineOption) Engine
)

var factories = map[EngineType]engineFactory{
	EngineTypeDocker: func(opts ...BaseCLIEngineOption) Engine { return NewDockerEngine(opts...) },
	EngineTypePodman: func(opts ...BaseCLIEngineOption) Engine { return NewPodmanEngine(opts...) },
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// String returns the image reference.
func (t ImageTag) String() string { return string(t) }

// String returns the container ID.
func (id ContainerID) String() string { return string(id) }

// NewEngine creates a new container engine based on preference, falling back
// to the other engine when the preferred one is unavailable.
func NewEngine(preferredType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	var fallbackType EngineType
	switch preferredType {
	case EngineTypeDocker:
		fallbackType = EngineTypePodman
	case EngineTypePodman:
		fallbackType = EngineTypeDocker
	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}

	if engine := factories[preferredType](opts...); engine.Available() {
		return engine, nil
	}
	if engine := factories[fallbackType](opts...); engine.Available() {
		return engine, nil
	}
	return nil, &ErrEngineNotAvailable{
		Engine: string(preferredType),
		Reason: fmt.Sprintf("%s is not installed or not accessible, and %s fallback is also not available",
			preferredType, fallbackType),
	}
}
