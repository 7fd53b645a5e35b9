// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wslget/wslget/internal/config"
)

// newConfigCommand creates the `wslget config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage wslget configuration",
		Long: `Manage wslget configuration.

Configuration is stored in <UserConfigDir>/wslget/config.cue
(%APPDATA%\wslget\config.cue on Windows). Every key can be overridden
with a WSLGET_* environment variable, e.g. WSLGET_CONTAINER_ENGINE=podman.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			showConfig(cmd.OutOrStdout(), app.cfg, app.cfgPath)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		// Works even when the current config file does not load.
		PersistentPreRunE: skipConfigLoad,
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := app.configFilePath(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		// Works even when the current config file does not load.
		PersistentPreRunE: skipConfigLoad,
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := app.configFilePath(cmd)
			if err != nil {
				return err
			}
			created, err := config.CreateDefaultConfig(path)
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, left unchanged\n", path)
				return nil
			}
			printStep(cmd.OutOrStdout(), "Created default configuration at "+path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(app.cfg))
			return nil
		},
	})

	return cfgCmd
}

func skipConfigLoad(*cobra.Command, []string) error { return nil }

// configFilePath honours --config before the default location.
func (a *App) configFilePath(cmd *cobra.Command) (string, error) {
	explicit, _ := cmd.Flags().GetString("config")
	return config.ConfigFilePath(config.LoadOptions{ConfigFilePath: explicit})
}

func showConfig(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if path != "" {
		fmt.Fprintf(w, "%s: %s\n", NameStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", NameStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	kv := func(indent, key string, value any) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, NameStyle.Render(key), SuccessStyle.Render(fmt.Sprint(value)))
	}
	kv("", "container_engine", cfg.ContainerEngine)
	kv("", "rootfs_source", cfg.RootfsSource)
	kv("", "data_dir", cfg.DataDir)
	kv("", "wsl_version", cfg.WSLVersion)

	fmt.Fprintf(w, "\n%s:\n", NameStyle.Render("user"))
	kv("  ", "groups", strings.Join(cfg.User.Groups, ", "))
	kv("  ", "shells", strings.Join(cfg.User.Shells, ", "))

	fmt.Fprintf(w, "\n%s:\n", NameStyle.Render("ui"))
	kv("  ", "verbose", cfg.UI.Verbose)

	fmt.Fprintf(w, "\n%s:\n", NameStyle.Render("registry"))
	host := cfg.Registry.Host
	if host == "" {
		host = "(Docker Hub)"
	}
	kv("  ", "host", host)
	kv("  ", "platform", cfg.Registry.Platform)
	kv("  ", "insecure", cfg.Registry.Insecure)
	if cfg.Registry.LayerCache != "" {
		kv("  ", "layer_cache", cfg.Registry.LayerCache)
	}
}
