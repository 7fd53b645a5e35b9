// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wslget/wslget/internal/app/install"
	"github.com/wslget/wslget/internal/provision"
	"github.com/wslget/wslget/internal/rootfs"
)

type installFlags struct {
	noUser bool
	user   string
}

func newInstallCommand(app *App) *cobra.Command {
	flags := &installFlags{}
	cmd := &cobra.Command{
		Use:   "install [flags] <image[:tag]> [install-name]",
		Short: "Install an image as a WSL distribution",
		Long: `Install an image as a WSL distribution.

The image's root filesystem is exported, imported with wsl.exe into
<data_dir>/<install-name>, and a login user is created and made the
default. The install name defaults to the image name with '/' replaced
by '-', followed by the tag (e.g. "ubuntu-24.04").`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runInstall(cmd, flags, args)
		},
	}
	cmd.Flags().BoolVar(&flags.noUser, "no-user", false, "do not add a user after installation")
	cmd.Flags().StringVarP(&flags.user, "user", "u", "", "name of the user to create (prompted when empty)")
	cmd.MarkFlagsMutuallyExclusive("no-user", "user")
	return cmd
}

func (a *App) runInstall(cmd *cobra.Command, flags *installFlags, args []string) error {
	ctx := cmd.Context()
	ref, err := rootfs.ParseImageRef(args[0])
	if err != nil {
		return err
	}
	name := ref.InstallName()
	if len(args) == 2 {
		name = args[1]
	}

	svc, err := a.Services.Open(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer a.closeServices(svc)

	// Fail on a taken name before prompting or pulling anything.
	if err := svc.Registry.EnsureNotRegistered(name); err != nil {
		return err
	}

	req := install.Request{Image: ref, Name: name}
	if !flags.noUser {
		u, err := a.askUser(flags.user)
		if err != nil {
			return err
		}
		req.User = u
	}

	packager, err := a.Services.Packager(a.cfg, a.logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Installing %s as %s\n", NameStyle.Render(ref.String()), NameStyle.Render(name))

	installer := install.New(packager, svc.Registry, svc.Users, a.cfg.DataDir, install.WithLogger(a.logger))
	res, err := installer.Install(ctx, req)
	if err != nil {
		return err
	}

	printStep(out, "Registered "+res.Name+" in "+res.DataDir)
	if req.User != nil {
		printStep(out, fmt.Sprintf("Default user %s (uid %d)", req.User.Name, res.UID))
	}
	fmt.Fprintln(out, SuccessStyle.Render("Complete!"))
	return nil
}

// askUser collects the account to create. The same password is used for root.
func (a *App) askUser(name string) (*provision.User, error) {
	if name == "" {
		var err error
		if name, err = askUserName(a.Prompt, a.stderr); err != nil {
			return nil, err
		}
	} else if err := provision.ValidateUserName(name); err != nil {
		return nil, err
	}
	password, err := askNewPassword(a.Prompt, a.stderr)
	if err != nil {
		return nil, err
	}
	return &provision.User{Name: name, Password: password}, nil
}
