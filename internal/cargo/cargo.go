// SPDX-License-Identifier: MPL-2.0

// Package cargo implements the build and package phases by delegating to the
// cargo tool. Each phase returns a PhaseResult; nothing here retries or
// inspects cargo's output beyond keeping a diagnostic tail.
package cargo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/archcrate/archcrate/internal/execx"
	"github.com/archcrate/archcrate/pkg/types"
)

const (
	// PhaseVersion computes the package version.
	PhaseVersion Phase = "version"
	// PhaseBuild compiles the release binary.
	PhaseBuild Phase = "build"
	// PhasePackage installs into the staging root.
	PhasePackage Phase = "package"

	// DefaultTool is the cargo binary name.
	DefaultTool = "cargo"
	// DefaultPrefix is the directory under the install root that receives
	// the installed tree.
	DefaultPrefix = "usr"
)

// DefaultCleanup lists install metadata removed after cargo install. Paths
// are doublestar patterns relative to <root>/<prefix>.
var DefaultCleanup = []string{".crates.toml", ".crates2.json"}

var (
	// ErrToolFailed means cargo ran and exited non-zero.
	ErrToolFailed = errors.New("cargo exited with a failure status")
	// ErrInvalidInstallRoot means the install root was not provided.
	ErrInvalidInstallRoot = errors.New("install root is required")
)

type (
	// Phase names one step of the packaging pipeline.
	Phase string

	// PhaseResult reports one phase. Err is nil on success. Diagnostic holds
	// the tail of the tool's stderr when it failed. Skipped marks a phase that
	// was planned but not executed (dry run or --skip-build).
	PhaseResult struct {
		Phase      Phase
		Command    string
		ExitCode   types.ExitCode
		Diagnostic string
		Skipped    bool
		Err        error
	}

	// Options are shared by build and install.
	Options struct {
		// Tool overrides the cargo binary.
		Tool string
		// ProjectDir contains Cargo.toml.
		ProjectDir types.FilesystemPath
		// Locked passes --locked.
		Locked bool
		// Features are passed as --features a,b.
		Features []string
		// ExtraArgs are appended verbatim.
		ExtraArgs []string
		// Env is appended to the inherited environment.
		Env []string
		// Stdout and Stderr receive cargo's streams; nil discards stdout and
		// keeps stderr only for the diagnostic.
		Stdout io.Writer
		Stderr io.Writer
	}

	// InstallOptions configure the package phase.
	InstallOptions struct {
		Options
		// InstallRoot is the staging directory ($pkgdir).
		InstallRoot types.FilesystemPath
		// Prefix is created under InstallRoot and passed to --root.
		Prefix string
		// Cleanup patterns are removed from <root>/<prefix> after install.
		Cleanup []string
	}

	// Cargo runs cargo through an execx.Runner.
	Cargo struct {
		runner execx.Runner
	}
)

// OK reports whether the phase succeeded.
func (r *PhaseResult) OK() bool { return r != nil && r.Err == nil }

// String summarizes the result for logs.
func (r *PhaseResult) String() string {
	if r.Skipped {
		return string(r.Phase) + ": skipped"
	}
	if r.Err == nil {
		return string(r.Phase) + ": ok"
	}
	return fmt.Sprintf("%s: %v", r.Phase, r.Err)
}

// New creates a Cargo using runner; nil selects the OS runner.
func New(runner execx.Runner) *Cargo {
	if runner == nil {
		runner = execx.NewOSRunner()
	}
	return &Cargo{runner: runner}
}

// BuildArgs returns the arguments of the build phase.
func BuildArgs(opts Options) []string {
	args := []string{"build", "--release"}
	args = appendCommon(args, opts)
	return args
}

// InstallArgs returns the arguments of the package phase.
func InstallArgs(opts InstallOptions) []string {
	args := []string{
		"install",
		"--path", string(opts.ProjectDir),
		"--root", string(opts.InstallRoot.Join(opts.prefix())),
	}
	args = appendCommon(args, opts.Options)
	return args
}

func appendCommon(args []string, opts Options) []string {
	if opts.Locked {
		args = append(args, "--locked")
	}
	if len(opts.Features) > 0 {
		args = append(args, "--features", strings.Join(opts.Features, ","))
	}
	return append(args, opts.ExtraArgs...)
}

// BuildCommand returns the command the build phase runs.
func BuildCommand(opts Options) execx.Command {
	return opts.command(BuildArgs(opts))
}

// InstallCommand returns the command the package phase runs.
func InstallCommand(opts InstallOptions) execx.Command {
	return opts.command(InstallArgs(opts))
}

// Build runs `cargo build --release` in the project directory.
func (c *Cargo) Build(ctx context.Context, opts Options) *PhaseResult {
	return c.run(ctx, PhaseBuild, BuildCommand(opts))
}

// Install creates <root>/<prefix>, runs cargo install into it and removes
// the cleanup files. A missing cleanup file is not an error.
func (c *Cargo) Install(ctx context.Context, opts InstallOptions) *PhaseResult {
	if ok, _ := opts.InstallRoot.IsValid(); !ok {
		return &PhaseResult{Phase: PhasePackage, ExitCode: types.ExitUsage, Err: ErrInvalidInstallRoot}
	}

	prefixDir := opts.InstallRoot.Join(opts.prefix())
	if err := os.MkdirAll(string(prefixDir), 0o755); err != nil {
		return &PhaseResult{
			Phase:    PhasePackage,
			ExitCode: types.ExitPhaseFailed,
			Err:      fmt.Errorf("creating %s: %w", prefixDir, err),
		}
	}

	res := c.run(ctx, PhasePackage, InstallCommand(opts))
	if !res.OK() {
		return res
	}

	cleanup := opts.Cleanup
	if cleanup == nil {
		cleanup = DefaultCleanup
	}
	if err := RemoveMetadata(prefixDir, cleanup); err != nil {
		res.ExitCode = types.ExitPhaseFailed
		res.Err = err
	}
	return res
}

// RemoveMetadata deletes files under dir matching patterns. Patterns that
// match nothing are ignored.
func RemoveMetadata(dir types.FilesystemPath, patterns []string) error {
	fsys := os.DirFS(string(dir))
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return fmt.Errorf("cleanup pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			path := filepath.Join(string(dir), filepath.FromSlash(m))
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("removing %s: %w", path, err)
			}
			slog.Debug("removed install metadata", "path", path)
		}
	}
	return nil
}

func (o InstallOptions) prefix() string {
	if o.Prefix == "" {
		return DefaultPrefix
	}
	return o.Prefix
}

func (o Options) tool() string {
	if o.Tool == "" {
		return DefaultTool
	}
	return o.Tool
}

func (o Options) command(args []string) execx.Command {
	cmd := execx.Command{
		Name:   o.tool(),
		Args:   args,
		Dir:    o.ProjectDir,
		Env:    o.Env,
		Stdout: o.Stdout,
		Stderr: o.Stderr,
	}
	if cmd.Stdout == nil {
		cmd.Stdout = io.Discard
	}
	return cmd
}

func (c *Cargo) run(ctx context.Context, phase Phase, cmd execx.Command) *PhaseResult {
	res := &PhaseResult{Phase: phase, Command: cmd.String()}

	slog.Info("running phase", "phase", phase, "cmd", res.Command)
	out, err := c.runner.Run(ctx, cmd)
	if err != nil {
		res.ExitCode = types.ExitPhaseFailed
		res.Err = err
		return res
	}
	if !out.ExitCode.IsSuccess() {
		res.ExitCode = out.ExitCode
		res.Diagnostic = out.Stderr
		res.Err = fmt.Errorf("%w: %s exited with status %s", ErrToolFailed, res.Command, out.ExitCode)
	}
	return res
}
