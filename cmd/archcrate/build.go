// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archcrate/archcrate/internal/cargo"
)

// newBuildCommand creates `archcrate build`, the build() step.
func newBuildCommand(app *App) *cobra.Command {
	var project string

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the crate with cargo build --release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectDir, err := absDir(project)
			if err != nil {
				return err
			}
			cfg, err := app.loadConfig(cmd.Context(), projectDir)
			if err != nil {
				return err
			}

			opts := cfg.CargoOptions()
			opts.ProjectDir = projectDir
			if err := cargoEnv(cfg, projectDir, &opts); err != nil {
				return err
			}
			app.cargoStreams(&opts)

			res := cargo.New(app.Runner).Build(cmd.Context(), opts)
			if !res.OK() {
				return app.phaseFailure(cfg, res)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(res.Command))
			return nil
		},
	}

	buildCmd.Flags().StringVar(&project, "project", "", "crate directory containing Cargo.toml (default: current directory)")
	return buildCmd
}

// newPackageCommand creates `archcrate package`, the package() step: install
// the crate under <root>/<prefix> and drop cargo's install metadata.
func newPackageCommand(app *App) *cobra.Command {
	var project, root string

	packageCmd := &cobra.Command{
		Use:   "package",
		Short: "Install the crate into a staging root",
		Long: `Install the crate into a staging root.

Creates <root>/usr, runs cargo install with --root <root>/usr and removes the
.crates.toml and .crates2.json files cargo leaves behind.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			installRoot, err := app.requireRoot(root)
			if err != nil {
				return err
			}
			projectDir, err := absDir(project)
			if err != nil {
				return err
			}
			cfg, err := app.loadConfig(cmd.Context(), projectDir)
			if err != nil {
				return err
			}

			opts := cfg.InstallOptions()
			opts.ProjectDir = projectDir
			opts.InstallRoot = installRoot
			if err := cargoEnv(cfg, projectDir, &opts.Options); err != nil {
				return err
			}
			app.cargoStreams(&opts.Options)

			res := cargo.New(app.Runner).Install(cmd.Context(), opts)
			if !res.OK() {
				return app.phaseFailure(cfg, res)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(res.Command))
			return nil
		},
	}

	packageCmd.Flags().StringVar(&project, "project", "", "crate directory containing Cargo.toml (default: current directory)")
	packageCmd.Flags().StringVar(&root, "root", "", "staging root, usually $pkgdir (required)")
	return packageCmd
}
