// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/log"

	"github.com/wslget/wslget/internal/config"
	"github.com/wslget/wslget/internal/container"
	"github.com/wslget/wslget/internal/issue"
	"github.com/wslget/wslget/internal/process"
	"github.com/wslget/wslget/internal/provision"
	"github.com/wslget/wslget/internal/registration"
	"github.com/wslget/wslget/internal/rootfs"
	"github.com/wslget/wslget/internal/wslapi"
	"github.com/wslget/wslget/internal/wslcli"
)

// defaultServices binds the real platform API, wsl.exe and the configured
// rootfs source.
type defaultServices struct {
	runner *process.Runner
}

func (d *defaultServices) processRunner(logger *log.Logger) *process.Runner {
	if d.runner == nil {
		d.runner = process.NewRunner(process.WithLogger(logger))
	}
	return d.runner
}

func (d *defaultServices) Packager(cfg *config.Config, logger *log.Logger) (Packager, error) {
	return NewPackager(cfg, d.processRunner(logger), logger)
}

func (d *defaultServices) Open(cfg *config.Config, logger *log.Logger) (*Services, error) {
	api, err := wslapi.Open()
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load the WSL platform API").
			WithSuggestion("Run wslget from Windows with WSL installed").
			WithIssue(issue.WSLUnavailableId).
			Wrap(err).
			BuildError()
	}
	return NewServices(cfg, api, wslcli.New(wslcli.WithRunner(d.processRunner(logger))), logger), nil
}

// NewPackager builds the packager for cfg.RootfsSource.
func NewPackager(cfg *config.Config, runner *process.Runner, logger *log.Logger) (Packager, error) {
	var source rootfs.Source
	switch cfg.RootfsSource {
	case config.RootfsSourceRegistry:
		source = &rootfs.RegistrySource{
			Host:       cfg.Registry.Host,
			Platform:   cfg.Registry.Platform,
			Insecure:   cfg.Registry.Insecure,
			LayerCache: cfg.Registry.LayerCache,
		}
	default:
		engine, err := container.NewEngine(
			container.EngineType(cfg.ContainerEngine),
			container.WithRunner(runner),
			container.WithLogger(logger),
		)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("find a container engine").
				WithSuggestion("Start Docker Desktop or Podman").
				WithSuggestion("Set rootfs_source: \"registry\" to pull without an engine").
				WithIssue(issue.ContainerEngineNotFoundId).
				Wrap(err).
				BuildError()
		}
		logger.Debug("using container engine", "engine", engine.Name())
		source = &rootfs.EngineSource{Engine: engine, Logger: logger}
	}
	return rootfs.NewPackager(source, rootfs.WithLogger(logger)), nil
}

// NewServices wires the registration and provisioning services around api
// and the wsl.exe client.
func NewServices(cfg *config.Config, api wslapi.API, wsl *wslcli.Client, logger *log.Logger) *Services {
	return &Services{
		Registry: registration.NewService(api, wsl,
			registration.WithVersion(cfg.WSLVersion),
			registration.WithLogger(logger),
		),
		Users: provision.New(api, wsl,
			provision.WithShells(cfg.User.Shells...),
			provision.WithGroups(cfg.User.Groups...),
			provision.WithLogger(logger),
		),
		closer: api,
	}
}
