// SPDX-License-Identifier: MPL-2.0

package rootfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"

	"github.com/wslget/wslget/internal/undo"
)

// ErrPackaging is the sentinel error wrapped by PackagingError.
var ErrPackaging = errors.New("rootfs packaging failed")

type (
	// PackagingError is returned when an image could not be turned into a
	// tarball. Err carries the failing stage (see process.StageOf).
	PackagingError struct {
		Image string
		Path  string
		Err   error
	}

	// PackagerOption configures a Packager.
	PackagerOption func(*Packager)

	// Packager writes the root filesystem of an image to a .tar.gz file.
	Packager struct {
		source Source
		logger *log.Logger
		level  int
	}

	// ctxReader fails reads once its context is done.
	ctxReader struct {
		ctx context.Context
		r   io.Reader
	}
)

func (e *PackagingError) Error() string {
	return fmt.Sprintf("package %s into %s: %v", e.Image, e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PackagingError) Unwrap() []error { return []error{ErrPackaging, e.Err} }

// WithLogger sets the logger for packaging progress and cleanup warnings.
func WithLogger(l *log.Logger) PackagerOption {
	return func(p *Packager) {
		p.logger = l
	}
}

// WithCompressionLevel overrides the gzip level (default gzip.BestSpeed).
func WithCompressionLevel(level int) PackagerOption {
	return func(p *Packager) {
		p.level = level
	}
}

// NewPackager creates a Packager reading from source.
func NewPackager(source Source, opts ...PackagerOption) *Packager {
	p := &Packager{source: source, level: gzip.BestSpeed}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// Package writes the root filesystem of ref to dest as gzip-compressed tar.
//
// The archive is written to a temporary file in dest's directory and renamed
// over dest only after the source stream closed cleanly. Temporary resources
// registered by the source (the exported container) are released exactly
// once on every path; a failing release is logged, never returned.
func (p *Packager) Package(ctx context.Context, ref ImageRef, dest string) (err error) {
	cleanup := undo.New(p.logger)
	defer func() { _ = cleanup.Unwind(ctx) }()

	wrap := func(cause error) error {
		return &PackagingError{Image: ref.String(), Path: dest, Err: cause}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrap(fmt.Errorf("create output directory: %w", err))
	}

	stream, err := p.source.Open(ctx, ref, cleanup)
	if err != nil {
		return wrap(err)
	}

	tmp, err := os.CreateTemp(dir, ".rootfs-*.tar.gz")
	if err != nil {
		_ = stream.Close()
		return wrap(fmt.Errorf("create temporary file: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	written, err := p.compress(ctx, tmp, stream)
	closeErr := stream.Close()
	if err != nil {
		// Closing an unfinished stream kills the producer; its exit
		// status is a consequence of the copy error.
		if closeErr != nil {
			p.logger.Warn("rootfs source did not close cleanly", "image", ref.String(), "err", closeErr)
		}
		return wrap(err)
	}
	if closeErr != nil {
		return wrap(closeErr)
	}

	if err = tmp.Sync(); err != nil {
		return wrap(fmt.Errorf("sync %s: %w", tmp.Name(), err))
	}
	if err = tmp.Close(); err != nil {
		return wrap(fmt.Errorf("close %s: %w", tmp.Name(), err))
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return wrap(fmt.Errorf("persist tarball: %w", err))
	}

	p.logger.Info("rootfs packaged", "image", ref.String(), "path", dest, "bytes", written)
	return nil
}

func (p *Packager) compress(ctx context.Context, w io.Writer, r io.Reader) (int64, error) {
	gz, err := gzip.NewWriterLevel(w, p.level)
	if err != nil {
		return 0, fmt.Errorf("gzip: %w", err)
	}
	n, err := io.Copy(gz, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		_ = gz.Close()
		return n, fmt.Errorf("compress rootfs: %w", err)
	}
	if err := gz.Close(); err != nil {
		return n, fmt.Errorf("compress rootfs: %w", err)
	}
	return n, nil
}

func (c *ctxReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}
