// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/wslget/wslget/internal/config"
	"github.com/wslget/wslget/internal/provision"
	"github.com/wslget/wslget/internal/registration"
	"github.com/wslget/wslget/internal/rootfs"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive
	// an App and delegate to the services it builds.
	App struct {
		Config   ConfigProvider
		Services ServiceFactory
		Prompt   Prompter
		stdout   io.Writer
		stderr   io.Writer

		// Set by the root command before any subcommand runs.
		cfg     *config.Config
		cfgPath string
		logger  *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Services ServiceFactory
		Prompt   Prompter
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		LoadWithPath(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	// ServiceFactory builds the services one command invocation needs.
	ServiceFactory interface {
		// Packager needs only the rootfs source, not WSL.
		Packager(cfg *config.Config, logger *log.Logger) (Packager, error)
		// Open binds the WSL platform API; callers must Close the result.
		Open(cfg *config.Config, logger *log.Logger) (*Services, error)
	}

	// Packager writes a rootfs tarball for an image.
	Packager interface {
		Package(ctx context.Context, ref rootfs.ImageRef, dest string) error
	}

	// Services bundles the WSL-backed services of one invocation.
	Services struct {
		Registry *registration.Service
		Users    *provision.Provisioner
		closer   io.Closer
	}

	configLoader struct{}
)

// Close releases the platform binding.
func (s *Services) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (configLoader) LoadWithPath(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error) {
	return config.LoadWithPath(ctx, opts)
}

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:   deps.Config,
		Services: deps.Services,
		Prompt:   deps.Prompt,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}
	if app.Config == nil {
		app.Config = configLoader{}
	}
	if app.Services == nil {
		app.Services = &defaultServices{}
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.Prompt == nil {
		app.Prompt = newTerminalPrompter(os.Stdin, app.stderr)
	}
	return app
}

func (a *App) closeServices(svc *Services) {
	if err := svc.Close(); err != nil {
		a.logger.Warn("failed to release the WSL platform API", "err", err)
	}
}
