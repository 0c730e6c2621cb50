// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/archcrate/archcrate/internal/issue"
	"github.com/archcrate/archcrate/internal/pipeline"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the archcrate command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "archcrate",
		Short: "Package Rust crates for Arch Linux",
		Long: TitleStyle.Render("archcrate") + SubtitleStyle.Render(" - Package Rust crates for Arch Linux") + `

archcrate turns a crate checked out from git into an Arch Linux package
staging tree. It derives pkgver from the nearest tag, builds the release
binary with cargo and installs it under the staging root.

` + SubtitleStyle.Render("Examples:") + `
  archcrate version                   Print the pkgver of the current repository
  archcrate run --root "$pkgdir"      Run version, build and package in order
  archcrate pkgbuild                  Generate a PKGBUILD from Cargo.toml
  archcrate vercmp 1.0.r2.g1a 1.0     Compare two package versions`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			slog.SetDefault(newLogger(app.stderr, app.flags.verbose))
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/archcrate/config.cue)")

	rootCmd.AddCommand(
		newVersionCommand(app),
		newBuildCommand(app),
		newPackageCommand(app),
		newRunCommand(app),
		newPkgbuildCommand(app),
		newVercmpCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// Execute builds the production App and runs the command tree. It is called
// by main.main and exits the process with the mapped status.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	// fang overrides rootCmd.Version, so the version string is passed as an option.
	err = fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler(&app.flags.verbose)),
	)
	os.Exit(int(exitCodeOf(err)))
}

// errorHandler prints actionable errors with their suggestions and stays
// silent for failures that were already reported. Other errors come from
// cobra's argument handling and get a usage hint.
func errorHandler(verbose *bool) fang.ErrorHandler {
	return func(w io.Writer, _ fang.Styles, err error) {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return
		}
		var ae *issue.ActionableError
		if errors.As(err, &ae) {
			fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+ae.Format(*verbose))
			return
		}
		fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+err.Error())
		if exitErr == nil && !errors.As(err, new(*pipeline.PhaseError)) {
			fmt.Fprintln(w, SubtitleStyle.Render("Run 'archcrate --help' for usage."))
		}
	}
}
