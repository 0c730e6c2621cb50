// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/archcrate/archcrate/internal/cargo"
	"github.com/archcrate/archcrate/internal/config"
	"github.com/archcrate/archcrate/internal/execx"
	"github.com/archcrate/archcrate/internal/issue"
	"github.com/archcrate/archcrate/internal/pipeline"
	"github.com/archcrate/archcrate/pkg/types"
)

// cargoStreams returns where cargo's output goes: the terminal in verbose
// mode, otherwise nowhere (stderr is still kept for the failure diagnostic).
func (a *App) cargoStreams(opts *cargo.Options) {
	if a.flags.verbose {
		opts.Stdout = a.stdout
		opts.Stderr = a.stderr
	}
}

// cargoEnv adds the variables from build.env_file, relative to the project
// directory, to opts.
func cargoEnv(cfg *config.Config, projectDir types.FilesystemPath, opts *cargo.Options) error {
	if cfg.Build.EnvFile == "" {
		return nil
	}
	env, err := cargo.LoadEnvFile(cfg.Build.EnvFile, projectDir)
	if err != nil {
		return &ExitError{Code: types.ExitUsage, Err: err}
	}
	opts.Env = append(opts.Env, env...)
	return nil
}

// phaseIssue picks the catalog entry explaining a failed phase.
func phaseIssue(res *cargo.PhaseResult) issue.Id {
	switch {
	case errors.Is(res.Err, execx.ErrToolNotFound):
		return issue.CargoNotFoundId
	case errors.Is(res.Err, cargo.ErrInvalidInstallRoot):
		return issue.InstallRootMissingId
	case res.Phase == cargo.PhaseBuild:
		return issue.BuildFailedId
	default:
		return issue.InstallFailedId
	}
}

// phaseFailure reports a failed phase and returns the error that carries its
// exit status back to Execute.
func (a *App) phaseFailure(cfg *config.Config, res *cargo.PhaseResult) error {
	a.renderIssue(phaseIssue(res), cfg.UI.ColorScheme)
	if res.Diagnostic != "" && !a.flags.verbose {
		fmt.Fprintln(a.stderr, SubtitleStyle.Render(res.Diagnostic))
	}
	phaseErr := &pipeline.PhaseError{Result: res}
	return &ExitError{Code: phaseErr.ExitCode(), Err: phaseErr}
}

// writeReport prints one line per phase reached.
func writeReport(w io.Writer, report *pipeline.Report) {
	for _, res := range report.Phases {
		name := phaseNameStyle.Render(string(res.Phase))
		switch {
		case res.Phase == cargo.PhaseVersion:
			fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓"), name, report.Version.Version)
		case res.Skipped:
			fmt.Fprintf(w, "%s %s %s\n", WarningStyle.Render("-"), name, CmdStyle.Render(res.Command))
		case res.OK():
			fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓"), name, CmdStyle.Render(res.Command))
		default:
			fmt.Fprintf(w, "%s %s %s\n", ErrorStyle.Render("✗"), name, strings.TrimSpace(res.String()))
		}
	}
}

// requireRoot turns a missing --root into a usage error with the catalog hint.
func (a *App) requireRoot(root string) (types.FilesystemPath, error) {
	if root == "" {
		a.renderIssue(issue.InstallRootMissingId, config.ColorSchemeAuto)
		return "", &ExitError{Code: types.ExitUsage, Err: cargo.ErrInvalidInstallRoot}
	}
	return absDir(root)
}

// writeReportFile stores the YAML report at path.
func writeReportFile(path string, report *pipeline.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
