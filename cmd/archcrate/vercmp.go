// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archcrate/archcrate/pkg/pkgver"
)

// newVercmpCommand creates `archcrate vercmp`, which orders two package
// versions the way pacman does.
func newVercmpCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "vercmp <version-a> <version-b>",
		Short: "Compare two package versions",
		Long: `Compare two package versions ([epoch:]pkgver[-pkgrel]).

Prints -1 if the first is older, 0 if they are equal and 1 if it is newer.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			fmt.Fprintln(app.stdout, pkgver.Compare(args[0], args[1]))
			return nil
		},
	}
}
