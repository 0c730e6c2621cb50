// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/archcrate/archcrate/internal/issue"
	"github.com/archcrate/archcrate/internal/pipeline"
	"github.com/archcrate/archcrate/internal/vcs"
	"github.com/archcrate/archcrate/pkg/pkgver"
)

type versionFlags struct {
	repo     string
	project  string
	fallback string
	long     bool
	backend  string
	match    string
}

// newVersionCommand creates `archcrate version`, the pkgver() step: print
// the normalized describe output of a repository, or the fallback verbatim.
func newVersionCommand(app *App) *cobra.Command {
	var flags versionFlags

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the package version derived from the nearest git tag",
		Long: `Print the package version derived from the nearest git tag.

The describe output has its leading "v" removed, the commit count prefixed
with "r" and every "-" replaced by ".":

  v1.2.0-3-gabc1234  ->  1.2.0.r3.gabc1234

When the repository has no reachable tag, or is not a repository at all, the
fallback is printed unchanged and the command still succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, app, flags)
		},
	}

	versionCmd.Flags().StringVar(&flags.repo, "repo", "", "repository to describe (default: --project)")
	versionCmd.Flags().StringVar(&flags.project, "project", "", "crate directory used for config and Cargo.toml (default: current directory)")
	versionCmd.Flags().StringVar(&flags.fallback, "fallback", "", "version printed when describe fails (default: config, then Cargo.toml)")
	versionCmd.Flags().BoolVar(&flags.long, "long", false, "always include the commit count and hash")
	versionCmd.Flags().StringVar(&flags.backend, "backend", "", "describe backend: gogit or git (default: config)")
	versionCmd.Flags().StringVar(&flags.match, "match", "", "only consider tags matching this glob")

	return versionCmd
}

func runVersion(cmd *cobra.Command, app *App, flags versionFlags) error {
	ctx := cmd.Context()

	projectDir, err := absDir(flags.project)
	if err != nil {
		return err
	}
	repoDir := projectDir
	if flags.repo != "" {
		if repoDir, err = absDir(flags.repo); err != nil {
			return err
		}
	}

	cfg, err := app.loadConfig(ctx, projectDir)
	if err != nil {
		return err
	}
	if flags.backend != "" {
		cfg.Version.Backend = vcs.Backend(flags.backend)
	}
	if flags.long {
		cfg.Version.Long = true
	}
	if flags.match != "" {
		cfg.Version.Match = flags.match
	}

	d, err := app.describer(cfg)
	if err != nil {
		return err
	}
	p := &pipeline.Pipeline{Describer: d}
	res := p.Version(ctx, repoDir, fallbackVersion(flags.fallback, cfg, projectDir))

	if res.Source == pkgver.SourceFallback {
		slog.Debug("describe failed", "repo", repoDir, "error", res.Cause)
		if app.flags.verbose {
			app.renderIssue(issue.VersionFallbackId, cfg.UI.ColorScheme)
		}
	}
	fmt.Fprintln(app.stdout, res.Version)
	return nil
}
