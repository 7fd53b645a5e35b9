// SPDX-License-Identifier: MPL-2.0

package rootfs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/go-containerregistry/pkg/crane"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/cache"
	"github.com/google/go-containerregistry/pkg/v1/mutate"

	"github.com/wslget/wslget/internal/container"
	"github.com/wslget/wslget/internal/undo"
)

// DefaultPlatform is the platform requested from multi-arch images.
const DefaultPlatform = "linux/amd64"

type (
	// Source yields the flattened root filesystem of an image as an
	// uncompressed tar stream. Temporary resources the source creates are
	// registered on cleanup; the caller unwinds it once the stream is closed.
	// Closing the stream reports any failure of the producer.
	Source interface {
		Open(ctx context.Context, ref ImageRef, cleanup *undo.Stack) (io.ReadCloser, error)
	}

	// EngineSource exports images through a local container engine CLI.
	EngineSource struct {
		Engine container.Engine
		Logger *log.Logger
	}

	// RegistrySource pulls images from an OCI registry without a daemon and
	// squashes their layers.
	RegistrySource struct {
		// Host is prefixed to the image name when set, e.g. "mirror.local:5000".
		Host string
		// Platform selects the image from a multi-arch index ("os/arch[/variant]").
		Platform string
		// Insecure allows plain HTTP registries.
		Insecure bool
		// LayerCache is an optional directory for caching pulled layers.
		LayerCache string
	}
)

// Open pulls ref, creates a stopped container from it and starts exporting
// its filesystem. Removal of the container is pushed onto cleanup as soon as
// it exists, so it runs whether or not the export succeeds.
func (s *EngineSource) Open(ctx context.Context, ref ImageRef, cleanup *undo.Stack) (io.ReadCloser, error) {
	image := container.ImageTag(ref.String())

	if s.logger().GetLevel() <= log.DebugLevel {
		if v, err := s.Engine.Version(ctx); err != nil {
			s.logger().Debug("could not query engine version", "engine", s.Engine.Name(), "err", err)
		} else {
			s.logger().Debug("container engine", "engine", s.Engine.Name(), "version", v)
		}
	}
	s.logger().Info("pulling image", "image", image, "engine", s.Engine.Name())
	if err := s.Engine.Pull(ctx, image); err != nil {
		return nil, err
	}

	id, err := s.Engine.Create(ctx, image)
	if err != nil {
		return nil, err
	}
	s.logger().Debug("created container", "id", id)
	cleanup.Push("remove container "+id.String(), func(ctx context.Context) error {
		return s.Engine.Remove(ctx, id)
	})

	s.logger().Info("exporting filesystem", "container", id)
	stream, err := s.Engine.Export(ctx, id)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (s *EngineSource) logger() *log.Logger {
	if s.Logger == nil {
		return log.New(io.Discard)
	}
	return s.Logger
}

// Reference returns the registry reference pulled for ref.
func (s *RegistrySource) Reference(ref ImageRef) string {
	if s.Host == "" {
		return ref.String()
	}
	return strings.TrimSuffix(s.Host, "/") + "/" + ref.String()
}

// Open pulls ref and returns its layers flattened into a single tar stream.
func (s *RegistrySource) Open(ctx context.Context, ref ImageRef, _ *undo.Stack) (io.ReadCloser, error) {
	platform := s.Platform
	if platform == "" {
		platform = DefaultPlatform
	}
	p, err := v1.ParsePlatform(platform)
	if err != nil {
		return nil, fmt.Errorf("invalid platform %q: %w", platform, err)
	}

	opts := []crane.Option{crane.WithContext(ctx), crane.WithPlatform(p)}
	if s.Insecure {
		opts = append(opts, crane.Insecure)
	}

	img, err := crane.Pull(s.Reference(ref), opts...)
	if err != nil {
		return nil, fmt.Errorf("pull %s: %w", s.Reference(ref), err)
	}
	if s.LayerCache != "" {
		img = cache.Image(img, cache.NewFilesystemCache(s.LayerCache))
	}
	return mutate.Extract(img), nil
}
