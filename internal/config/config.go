// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/wslget/wslget/internal/cueutil"
	"github.com/wslget/wslget/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "wslget"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. WSLGET_CONTAINER_ENGINE.
	EnvPrefix = "WSLGET"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns <UserConfigDir>/wslget: %APPDATA% on Windows,
// $XDG_CONFIG_HOME or ~/.config elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// ConfigFilePath returns the file Load reads for opts, whether or not it exists.
func ConfigFilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	dir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

func defaultDataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(dir, AppName)
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cuePath, err := ConfigFilePath(opts)
	if err != nil {
		return nil, "", err
	}

	resolvedPath := ""
	switch {
	case fileExists(cuePath):
		if err := loadCUEIntoViper(v, cuePath); err != nil {
			return nil, "", invalidConfigFileError(cuePath, err)
		}
		resolvedPath = cuePath
	case opts.ConfigFilePath != "":
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'wslget config init' to write a default configuration").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}
	// No config file: defaults and environment only.

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for typos").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("container_engine", d.ContainerEngine)
	v.SetDefault("rootfs_source", d.RootfsSource)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("wsl_version", d.WSLVersion)
	v.SetDefault("user.groups", d.User.Groups)
	v.SetDefault("user.shells", d.User.Shells)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("registry.host", d.Registry.Host)
	v.SetDefault("registry.platform", d.Registry.Platform)
	v.SetDefault("registry.insecure", d.Registry.Insecure)
	v.SetDefault("registry.layer_cache", d.Registry.LayerCache)
}

func invalidConfigFileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'wslget config --help' for configuration options").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper validates the CUE file at path against #Config and merges
// it into v, keeping defaults for absent keys.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, data, "#Config", path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file to path unless one is
// already there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if fileExists(path) {
		return false, nil
	}
	if err := Save(DefaultConfig(), path); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes cfg to path as CUE.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// wslget configuration file\n")
	sb.WriteString("// Every field is optional; remove a line to fall back to its default.\n\n")

	fmt.Fprintf(&sb, "container_engine: %q\n", cfg.ContainerEngine)
	fmt.Fprintf(&sb, "rootfs_source: %q\n", cfg.RootfsSource)
	fmt.Fprintf(&sb, "data_dir: %q\n", cfg.DataDir)
	fmt.Fprintf(&sb, "wsl_version: %d\n", cfg.WSLVersion)

	sb.WriteString("\nuser: {\n")
	fmt.Fprintf(&sb, "\tgroups: %s\n", cueList(cfg.User.Groups))
	fmt.Fprintf(&sb, "\tshells: %s\n", cueList(cfg.User.Shells))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	sb.WriteString("\nregistry: {\n")
	if cfg.Registry.Host != "" {
		fmt.Fprintf(&sb, "\thost: %q\n", cfg.Registry.Host)
	}
	fmt.Fprintf(&sb, "\tplatform: %q\n", cfg.Registry.Platform)
	fmt.Fprintf(&sb, "\tinsecure: %v\n", cfg.Registry.Insecure)
	if cfg.Registry.LayerCache != "" {
		fmt.Fprintf(&sb, "\tlayer_cache: %q\n", cfg.Registry.LayerCache)
	}
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
