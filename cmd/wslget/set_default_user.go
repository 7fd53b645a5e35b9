// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetDefaultUserCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-default-user <distro> <user>",
		Short: "Set the default login user of a distribution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			distro, user := args[0], args[1]

			svc, err := app.Services.Open(app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer app.closeServices(svc)

			if err := svc.Registry.EnsureRegistered(distro); err != nil {
				return err
			}
			uid, err := svc.Users.SetDefaultUser(cmd.Context(), distro, user)
			if err != nil {
				return err
			}
			printStep(cmd.OutOrStdout(), fmt.Sprintf("Default user of %s is now %s (uid %d)", distro, user, uid))
			return nil
		},
	}
}
