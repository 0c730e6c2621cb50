// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archcrate/archcrate/internal/config"
	"github.com/archcrate/archcrate/internal/issue"
	"github.com/archcrate/archcrate/internal/manifest"
	"github.com/archcrate/archcrate/internal/pkgbuild"
	"github.com/archcrate/archcrate/pkg/types"
)

type pkgbuildFlags struct {
	manifestDir string
	sourceDir   string
	stdout      bool
}

// newPkgbuildCommand creates `archcrate pkgbuild`, which writes a PKGBUILD
// from the [package] and [package.metadata.arch] tables of Cargo.toml.
func newPkgbuildCommand(app *App) *cobra.Command {
	var flags pkgbuildFlags

	pkgbuildCmd := &cobra.Command{
		Use:   "pkgbuild",
		Short: "Generate a PKGBUILD from Cargo.toml",
		Long: `Generate a PKGBUILD from Cargo.toml.

Fields come from [package.metadata.arch] and default to the matching
[package] keys. The recipe derives pkgver from git, builds with cargo and
installs into $pkgdir/usr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPkgbuild(cmd, app, flags)
		},
	}

	pkgbuildCmd.Flags().StringVar(&flags.manifestDir, "manifest", "", "directory containing Cargo.toml (default: current directory)")
	pkgbuildCmd.Flags().StringVar(&flags.sourceDir, "source-dir", "", "crate directory under $srcdir (default: $pkgname)")
	pkgbuildCmd.Flags().BoolVar(&flags.stdout, "stdout", false, "print the PKGBUILD instead of writing it")

	return pkgbuildCmd
}

func runPkgbuild(cmd *cobra.Command, app *App, flags pkgbuildFlags) error {
	projectDir, err := absDir(flags.manifestDir)
	if err != nil {
		return err
	}
	cfg, err := app.loadConfig(cmd.Context(), projectDir)
	if err != nil {
		return err
	}

	opts := pkgbuild.Options{
		SourceDir: flags.sourceDir,
		Prefix:    cfg.Package.Prefix,
		Locked:    cfg.Build.Locked,
		Features:  cfg.Build.Features,
		Cleanup:   cfg.Package.Cleanup,
	}

	if !flags.stdout {
		gen, err := pkgbuild.Generate(projectDir, opts)
		if err != nil {
			return app.pkgbuildFailure(cfg, "generate PKGBUILD", string(projectDir), err)
		}
		fmt.Fprintf(app.stdout, "%s wrote %s (%s %s)\n", SuccessStyle.Render("✓"),
			CmdStyle.Render(string(gen.Path)), gen.Pkgname, gen.Version)
		return nil
	}

	m, err := manifest.Load(projectDir)
	if err != nil {
		return app.pkgbuildFailure(cfg, "read manifest", string(projectDir.Join(manifest.FileName)), err)
	}
	out, err := pkgbuild.Render(m, opts)
	if err != nil {
		return app.pkgbuildFailure(cfg, "render PKGBUILD", string(projectDir), err)
	}
	_, err = app.stdout.Write(out)
	return err
}

func (a *App) pkgbuildFailure(cfg *config.Config, operation, resource string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)

	var parseErr *manifest.ParseError
	switch {
	case errors.Is(err, manifest.ErrManifestNotFound):
		ctx.WithIssue(issue.ManifestNotFoundId).
			WithSuggestion("Pass --manifest with the crate directory")
	case errors.As(err, &parseErr), errors.Is(err, manifest.ErrMissingPackage):
		ctx.WithIssue(issue.ManifestParseErrorId).
			WithSuggestion("In a workspace, point --manifest at a member crate")
	case errors.Is(err, pkgbuild.ErrInvalidVersion):
		ctx.WithIssue(issue.ManifestParseErrorId).
			WithSuggestion("Check epoch, pkgrel and version: makepkg needs numbers and no ':', '/' or spaces")
	case errors.Is(err, pkgbuild.ErrInvalidScript), errors.Is(err, pkgbuild.ErrInvalidOption):
		ctx.WithIssue(issue.PkgbuildInvalidId)
	}

	ae := ctx.Build()
	if id := ae.IssueID; id != 0 {
		a.renderIssue(id, cfg.UI.ColorScheme)
	}
	return &ExitError{Code: types.ExitPhaseFailed, Err: ae}
}
