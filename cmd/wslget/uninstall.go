// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUninstallCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "uninstall [-y] <distro>",
		Short: "Unregister a distribution and delete its filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runUninstall(cmd, args[0], yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "answer yes for all questions")
	return cmd
}

func (a *App) runUninstall(cmd *cobra.Command, distro string, yes bool) error {
	svc, err := a.Services.Open(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer a.closeServices(svc)

	if err := svc.Registry.EnsureRegistered(distro); err != nil {
		return err
	}

	if !yes {
		ok, err := a.Prompt.Confirm(fmt.Sprintf("Do you really want to uninstall %s?", distro))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("Nothing changed."))
			return nil
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Uninstalling %s\n", NameStyle.Render(distro))
	if err := svc.Registry.Unregister(distro); err != nil {
		return err
	}
	fmt.Fprintln(out, SuccessStyle.Render("Complete!"))
	return nil
}
