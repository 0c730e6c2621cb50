// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/archcrate/archcrate/internal/pipeline"
	"github.com/archcrate/archcrate/pkg/types"
)

type runFlags struct {
	project   string
	repo      string
	root      string
	fallback  string
	report    string
	skipBuild bool
	dryRun    bool
}

// newRunCommand creates `archcrate run`: version, build and package in order,
// stopping at the first failure.
func newRunCommand(app *App) *cobra.Command {
	var flags runFlags

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the version, build and package phases in order",
		Long: `Run the version, build and package phases in order.

The run stops at the first failing phase and exits with status 1. The version
phase never fails: without a reachable tag it uses the fallback.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, app, flags)
		},
	}

	runCmd.Flags().StringVar(&flags.project, "project", "", "crate directory containing Cargo.toml (default: current directory)")
	runCmd.Flags().StringVar(&flags.repo, "repo", "", "repository to describe (default: --project)")
	runCmd.Flags().StringVar(&flags.root, "root", "", "staging root, usually $pkgdir (required)")
	runCmd.Flags().StringVar(&flags.fallback, "fallback", "", "version used when describe fails")
	runCmd.Flags().StringVar(&flags.report, "report", "", "write a YAML summary of the run to this file")
	runCmd.Flags().BoolVar(&flags.skipBuild, "skip-build", false, "skip the build phase")
	runCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "print the phases without running cargo")

	return runCmd
}

func runPipeline(cmd *cobra.Command, app *App, flags runFlags) error {
	ctx := cmd.Context()

	installRoot, err := app.requireRoot(flags.root)
	if err != nil {
		return err
	}
	projectDir, err := absDir(flags.project)
	if err != nil {
		return err
	}
	var repoDir types.FilesystemPath
	if flags.repo != "" {
		if repoDir, err = absDir(flags.repo); err != nil {
			return err
		}
	}

	cfg, err := app.loadConfig(ctx, projectDir)
	if err != nil {
		return err
	}
	p, err := app.pipeline(cfg)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		ProjectDir:  projectDir,
		RepoDir:     repoDir,
		InstallRoot: installRoot,
		Fallback:    fallbackVersion(flags.fallback, cfg, projectDir),
		Build:       cfg.CargoOptions(),
		Install:     cfg.InstallOptions(),
		SkipBuild:   flags.skipBuild,
		DryRun:      flags.dryRun,
	}
	if err := cargoEnv(cfg, projectDir, &req.Build); err != nil {
		return err
	}
	app.cargoStreams(&req.Build)

	report, err := p.Run(ctx, req)
	if report != nil {
		writeReport(app.stdout, report)
		if flags.report != "" {
			if werr := writeReportFile(flags.report, report); werr != nil {
				if err == nil {
					return werr
				}
				slog.Warn("could not write run report", "path", flags.report, "error", werr)
			}
		}
	}
	if err != nil {
		var phaseErr *pipeline.PhaseError
		if errors.As(err, &phaseErr) {
			return app.phaseFailure(cfg, phaseErr.Result)
		}
		return &ExitError{Code: types.ExitUsage, Err: err}
	}
	return nil
}
