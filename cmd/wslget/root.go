// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for wslget.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/wslget/wslget/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type rootFlags struct {
	verbose bool
	cfgFile string
}

// NewRootCommand builds the wslget command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "wslget",
		Short: "Install container images as WSL distributions",
		Long: TitleStyle.Render("wslget") + SubtitleStyle.Render(" - Install container images as WSL distributions") + `

wslget turns any Docker or OCI image into a registered WSL distribution:
it exports the image's root filesystem, imports it with wsl.exe, creates
your login user and makes it the default.

` + SubtitleStyle.Render("Examples:") + `
  wslget install ubuntu:24.04             Install as "ubuntu-24.04"
  wslget install --no-user alpine ash     Install without creating a user
  wslget list                             List installed distributions
  wslget uninstall ubuntu-24.04           Remove a distribution
  wslget download debian:12 -o debian.tgz Only build the rootfs tarball`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.initConfig(cmd.Context(), flags)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.cfgFile, "config", "", "config file (default is <UserConfigDir>/wslget/config.cue)")

	rootCmd.AddCommand(
		newInstallCommand(app),
		newUninstallCommand(app),
		newListCommand(app),
		newDownloadCommand(app),
		newSetDefaultUserCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	// fang styles help and errors; pass version since it overrides rootCmd.Version.
	err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.errorHandler),
	)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initConfig loads the configuration and builds the logger shared by all
// services of this invocation.
func (a *App) initConfig(ctx context.Context, flags *rootFlags) error {
	cfg, path, err := a.Config.LoadWithPath(ctx, config.LoadOptions{ConfigFilePath: flags.cfgFile})
	if err != nil {
		return err
	}
	a.cfg, a.cfgPath = cfg, path

	if flags.verbose {
		a.cfg.UI.Verbose = true
	}
	level := log.InfoLevel
	if a.cfg.UI.Verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(a.stderr, log.Options{
		Prefix: "wslget",
		Level:  level,
	})
	return nil
}
