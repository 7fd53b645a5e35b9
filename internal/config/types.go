// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/wslget/wslget/internal/provision"
	"github.com/wslget/wslget/internal/rootfs"
	"github.com/wslget/wslget/internal/wslcli"
)

const (
	// ContainerEngineDocker uses Docker to pull and export images.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman to pull and export images.
	ContainerEnginePodman ContainerEngine = "podman"

	// RootfsSourceEngine exports the root filesystem from a container.
	RootfsSourceEngine RootfsSource = "engine"
	// RootfsSourceRegistry pulls and flattens the image without any engine.
	RootfsSourceRegistry RootfsSource = "registry"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidRootfsSource is returned when a RootfsSource value is not recognized.
	ErrInvalidRootfsSource = errors.New("invalid rootfs source")
	// ErrInvalidWSLVersion is returned for versions other than 1 and 2.
	ErrInvalidWSLVersion = errors.New("invalid wsl version")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// RootfsSource selects how root filesystems are obtained.
	RootfsSource string

	// InvalidRootfsSourceError is returned when a RootfsSource value is not recognized.
	InvalidRootfsSourceError struct {
		Value RootfsSource
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine is used when RootfsSource is "engine".
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// RootfsSource selects the rootfs provider.
		RootfsSource RootfsSource `json:"rootfs_source" mapstructure:"rootfs_source"`
		// DataDir is the parent of every distribution's install directory.
		DataDir string `json:"data_dir" mapstructure:"data_dir"`
		// WSLVersion is passed to the import command.
		WSLVersion int `json:"wsl_version" mapstructure:"wsl_version"`
		// User configures the account created after import.
		User UserConfig `json:"user" mapstructure:"user"`
		// UI configures output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Registry configures the "registry" rootfs source.
		Registry RegistryConfig `json:"registry" mapstructure:"registry"`
	}

	// UserConfig configures user provisioning.
	UserConfig struct {
		Groups []string `json:"groups" mapstructure:"groups"`
		Shells []string `json:"shells" mapstructure:"shells"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// RegistryConfig configures direct registry pulls.
	RegistryConfig struct {
		Host       string `json:"host" mapstructure:"host"`
		Platform   string `json:"platform" mapstructure:"platform"`
		Insecure   bool   `json:"insecure" mapstructure:"insecure"`
		LayerCache string `json:"layer_cache" mapstructure:"layer_cache"`
	}
)

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// Validate returns nil for docker and podman.
func (ce ContainerEngine) Validate() error {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman:
		return nil
	default:
		return &InvalidContainerEngineError{Value: ce}
	}
}

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// Error implements the error interface.
func (e *InvalidRootfsSourceError) Error() string {
	return fmt.Sprintf("invalid rootfs source %q (valid: engine, registry)", e.Value)
}

// Unwrap returns ErrInvalidRootfsSource for errors.Is() compatibility.
func (e *InvalidRootfsSourceError) Unwrap() error { return ErrInvalidRootfsSource }

// Validate returns nil for engine and registry.
func (rs RootfsSource) Validate() error {
	switch rs {
	case RootfsSourceEngine, RootfsSourceRegistry:
		return nil
	default:
		return &InvalidRootfsSourceError{Value: rs}
	}
}

// String returns the string representation of the RootfsSource.
func (rs RootfsSource) String() string { return string(rs) }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns the sentinel followed by every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks the constraints the CUE schema cannot see, such as
// values that arrived through environment variables.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ContainerEngine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.RootfsSource.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.WSLVersion != 1 && c.WSLVersion != 2 {
		errs = append(errs, fmt.Errorf("%w: %d (valid: 1, 2)", ErrInvalidWSLVersion, c.WSLVersion))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	for i, shell := range c.User.Shells {
		if !strings.HasPrefix(shell, "/") {
			errs = append(errs, fmt.Errorf("user.shells[%d]: %q is not an absolute path", i, shell))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineDocker,
		RootfsSource:    RootfsSourceEngine,
		DataDir:         defaultDataDir(),
		WSLVersion:      wslcli.DefaultVersion,
		User: UserConfig{
			Groups: slices.Clone(provision.DefaultGroups),
			Shells: slices.Clone(provision.DefaultShells),
		},
		Registry: RegistryConfig{
			Platform: rootfs.DefaultPlatform,
		},
	}
}
