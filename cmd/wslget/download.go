// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wslget/wslget/internal/rootfs"
)

func newDownloadCommand(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <image[:tag]>",
		Short: "Build the rootfs tarball of an image without installing it",
		Long: `Build the rootfs tarball of an image without installing it.

The tarball is written to <name>-<tag>.tar.gz in the current directory
unless --output is given, and can be imported later with
"wsl --import".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := rootfs.ParseImageRef(args[0])
			if err != nil {
				return err
			}
			dest := output
			if dest == "" {
				dest = ref.ArchiveName()
			}

			packager, err := app.Services.Packager(app.cfg, app.logger)
			if err != nil {
				return err
			}
			if err := packager.Package(cmd.Context(), ref, dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved rootfs to %s\n", NameStyle.Render(dest))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "tarball to write (default <name>-<tag>.tar.gz)")
	return cmd
}
