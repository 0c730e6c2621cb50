// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"github.com/archcrate/archcrate/internal/cargo"
	"github.com/archcrate/archcrate/internal/config"
	"github.com/archcrate/archcrate/internal/execx"
	"github.com/archcrate/archcrate/internal/issue"
	"github.com/archcrate/archcrate/internal/manifest"
	"github.com/archcrate/archcrate/internal/pipeline"
	"github.com/archcrate/archcrate/internal/vcs"
	"github.com/archcrate/archcrate/pkg/pkgver"
	"github.com/archcrate/archcrate/pkg/types"
)

// defaultFallback is used when neither the flag, the config nor Cargo.toml
// provide a version.
const defaultFallback = "0.0.0"

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App reference.
	App struct {
		Config     ConfigProvider
		Runner     execx.Runner
		Describers DescriberFactory
		stdout     io.Writer
		stderr     io.Writer

		flags rootFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		Runner     execx.Runner
		Describers DescriberFactory
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// DescriberFactory builds the version backend selected by configuration.
	DescriberFactory func(backend vcs.Backend, opts vcs.Options, runner execx.Runner) (pkgver.Describer, error)

	rootFlags struct {
		verbose    bool
		configFile string
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = execx.NewOSRunner()
	}
	if deps.Describers == nil {
		deps.Describers = newDescriber
	}

	return &App{
		Config:     deps.Config,
		Runner:     deps.Runner,
		Describers: deps.Describers,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}, nil
}

func newDescriber(backend vcs.Backend, opts vcs.Options, runner execx.Runner) (pkgver.Describer, error) {
	d, err := vcs.New(backend, opts, runner)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// newLogger returns a slog logger backed by a charmbracelet/log handler.
// Warnings and errors are shown by default; verbose enables debug output.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  log.WarnLevel,
	})
	if verbose {
		handler.SetLevel(log.DebugLevel)
	}
	return slog.New(handler)
}

// loadConfig loads configuration for projectDir and applies ui.verbose when
// the flag was not given. Failures render the config issue and exit with the
// usage status.
func (a *App) loadConfig(ctx context.Context, projectDir types.FilesystemPath) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(a.flags.configFile),
		ProjectDir:     projectDir,
	})
	if err != nil {
		// The error handler prints err; the catalog entry is extra help.
		if a.flags.verbose {
			a.renderIssue(issue.ConfigLoadFailedId, config.ColorSchemeAuto)
		}
		return nil, &ExitError{Code: types.ExitUsage, Err: err}
	}
	if cfg.UI.Verbose && !a.flags.verbose {
		a.flags.verbose = true
		slog.SetDefault(newLogger(a.stderr, true))
	}
	return cfg, nil
}

// renderIssue prints a catalog entry to stderr. Rendering problems are
// logged and otherwise ignored.
func (a *App) renderIssue(id issue.Id, scheme config.ColorScheme) {
	iss := issue.Get(id)
	if iss == nil {
		return
	}
	rendered, err := iss.Render(string(scheme))
	if err != nil {
		slog.Debug("rendering issue failed", "issue", id, "error", err)
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

// describer builds the configured version backend. An invalid backend is a
// usage error.
func (a *App) describer(cfg *config.Config) (pkgver.Describer, error) {
	d, err := a.Describers(cfg.Version.Backend, cfg.DescribeOptions(), a.Runner)
	if err != nil {
		return nil, &ExitError{Code: types.ExitUsage, Err: err}
	}
	return d, nil
}

// pipeline assembles the phase orchestrator from configuration.
func (a *App) pipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	d, err := a.describer(cfg)
	if err != nil {
		return nil, err
	}
	c := cargo.New(a.Runner)
	return &pipeline.Pipeline{Describer: d, Builder: c, Installer: c}, nil
}

// fallbackVersion picks the version used when describe fails: the explicit
// value, else the configured one, else the Cargo.toml version, else 0.0.0.
func fallbackVersion(explicit string, cfg *config.Config, projectDir types.FilesystemPath) string {
	if explicit != "" {
		return explicit
	}
	if cfg.Version.Fallback != "" {
		return cfg.Version.Fallback
	}
	if projectDir != "" {
		m, err := manifest.Load(projectDir)
		switch {
		case err == nil && m.Pkgver != "":
			return pkgver.SanitizeManifestVersion(m.Pkgver)
		case err != nil && !errors.Is(err, manifest.ErrManifestNotFound):
			slog.Debug("ignoring unreadable manifest for fallback version", "dir", projectDir, "error", err)
		}
	}
	return defaultFallback
}

// absDir resolves a directory flag; empty means the working directory.
func absDir(dir string) (types.FilesystemPath, error) {
	if dir == "" {
		dir = "."
	}
	p, err := types.FilesystemPath(dir).Abs()
	if err != nil {
		return "", &ExitError{Code: types.ExitUsage, Err: fmt.Errorf("resolving %q: %w", dir, err)}
	}
	return p, nil
}
