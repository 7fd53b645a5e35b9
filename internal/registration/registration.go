// SPDX-License-Identifier: MPL-2.0

package registration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/wslget/wslget/internal/wslapi"
	"github.com/wslget/wslget/internal/wslcli"
)

var (
	// ErrAlreadyRegistered is the sentinel error for a name that is taken.
	ErrAlreadyRegistered = errors.New("distribution already exists")

	// ErrNotRegistered is the sentinel error for an unknown name.
	ErrNotRegistered = errors.New("distribution is not installed")

	// ErrRegistration is the sentinel error wrapped by RegistrationError.
	ErrRegistration = errors.New("distribution registration failed")
)

type (
	// Importer imports a tarball as a distribution.
	Importer interface {
		Import(ctx context.Context, name, dir, tarball string, version int) error
	}

	// Lister lists registered distributions.
	Lister interface {
		List(ctx context.Context) ([]string, error)
	}

	// PreconditionError is returned before any side effect when the
	// distribution registry is not in the state an operation requires.
	PreconditionError struct {
		Name string
		Err  error
	}

	// RegistrationError is returned when the import itself fails.
	RegistrationError struct {
		Name    string
		DataDir string
		Err     error
	}

	// Option configures a Service.
	Option func(*Service)

	// Service registers and unregisters distributions.
	Service struct {
		api      wslapi.API
		importer Importer
		lister   Lister
		version  int
		logger   *log.Logger
	}
)

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s in %s: %v", e.Name, e.DataDir, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *RegistrationError) Unwrap() []error { return []error{ErrRegistration, e.Err} }

// WithVersion sets the WSL version passed to the import (default 2).
func WithVersion(version int) Option {
	return func(s *Service) {
		s.version = version
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithLister sets the distribution lister (default: the importer, when it
// also implements Lister).
func WithLister(l Lister) Option {
	return func(s *Service) {
		s.lister = l
	}
}

// NewService creates a Service.
func NewService(api wslapi.API, importer Importer, opts ...Option) *Service {
	s := &Service{api: api, importer: importer, version: wslcli.DefaultVersion}
	if l, ok := importer.(Lister); ok {
		s.lister = l
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// EnsureNotRegistered fails with a PreconditionError wrapping
// ErrAlreadyRegistered when name is taken.
func (s *Service) EnsureNotRegistered(name string) error {
	if s.api.IsRegistered(name) {
		return &PreconditionError{Name: name, Err: ErrAlreadyRegistered}
	}
	return nil
}

// EnsureRegistered fails with a PreconditionError wrapping ErrNotRegistered
// when name is unknown.
func (s *Service) EnsureRegistered(name string) error {
	if !s.api.IsRegistered(name) {
		return &PreconditionError{Name: name, Err: ErrNotRegistered}
	}
	return nil
}

// Register creates dataDir and imports tarball as name. The caller checks
// EnsureNotRegistered first.
func (s *Service) Register(ctx context.Context, name, dataDir, tarball string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return &RegistrationError{Name: name, DataDir: dataDir, Err: fmt.Errorf("create data directory: %w", err)}
	}
	s.logger.Info("importing distribution", "name", name, "dir", dataDir, "version", s.version)
	if err := s.importer.Import(ctx, name, dataDir, tarball, s.version); err != nil {
		return &RegistrationError{Name: name, DataDir: dataDir, Err: err}
	}
	return nil
}

// Unregister removes name and its filesystem.
func (s *Service) Unregister(name string) error {
	if err := s.EnsureRegistered(name); err != nil {
		return err
	}
	s.logger.Info("unregistering distribution", "name", name)
	return s.api.Unregister(name)
}

// List returns the registered distribution names.
func (s *Service) List(ctx context.Context) ([]string, error) {
	if s.lister == nil {
		return nil, errors.New("no distribution lister configured")
	}
	return s.lister.List(ctx)
}
