// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs the packaging phases in order: version, build,
// package. Every path is passed in through Request; nothing here reads the
// working directory or the environment.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/archcrate/archcrate/internal/cargo"
	"github.com/archcrate/archcrate/pkg/pkgver"
	"github.com/archcrate/archcrate/pkg/types"
)

// ErrInvalidRequest is the sentinel wrapped by InvalidRequestError.
var ErrInvalidRequest = errors.New("invalid pipeline request")

type (
	// Builder runs the build phase. *cargo.Cargo implements it.
	Builder interface {
		Build(ctx context.Context, opts cargo.Options) *cargo.PhaseResult
	}

	// Installer runs the package phase. *cargo.Cargo implements it.
	Installer interface {
		Install(ctx context.Context, opts cargo.InstallOptions) *cargo.PhaseResult
	}

	// Pipeline wires the three phases together. Describer may be nil, in
	// which case the version phase always uses the fallback.
	Pipeline struct {
		Describer pkgver.Describer
		Builder   Builder
		Installer Installer
	}

	// Request carries the inputs of one run.
	Request struct {
		// ProjectDir contains Cargo.toml.
		ProjectDir types.FilesystemPath
		// RepoDir is queried for the version; empty means ProjectDir.
		RepoDir types.FilesystemPath
		// InstallRoot is the staging root ($pkgdir).
		InstallRoot types.FilesystemPath
		// Fallback is used verbatim when the version cannot be derived.
		Fallback string

		// Build and Install carry tool options. Their ProjectDir and
		// InstallRoot are overwritten from the request.
		Build   cargo.Options
		Install cargo.InstallOptions

		SkipBuild bool
		DryRun    bool
	}

	// Report summarizes a run. Phases holds one entry per phase reached,
	// in execution order.
	Report struct {
		Version pkgver.Result
		Phases  []*cargo.PhaseResult
	}

	// PhaseError is returned when a phase fails. The run stops there.
	PhaseError struct {
		Result *cargo.PhaseResult
	}

	// InvalidRequestError lists the request fields that failed validation.
	InvalidRequestError struct {
		FieldErrors []error
	}
)

// Error implements error.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Result.Phase, e.Result.Err)
}

// Unwrap returns the phase's cause.
func (e *PhaseError) Unwrap() error { return e.Result.Err }

// ExitCode maps the failure to a process exit code.
func (e *PhaseError) ExitCode() types.ExitCode {
	if e.Result.ExitCode == types.ExitUsage {
		return types.ExitUsage
	}
	return types.ExitPhaseFailed
}

// Error implements error.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidRequest, errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidRequest for errors.Is.
func (e *InvalidRequestError) Unwrap() error { return ErrInvalidRequest }

// IsValid checks that the paths needed by the requested phases are set.
func (r Request) IsValid() (bool, []error) {
	var errs []error
	if ok, _ := r.ProjectDir.IsValid(); !ok {
		errs = append(errs, errors.New("project directory is required"))
	}
	if ok, _ := r.InstallRoot.IsValid(); !ok {
		errs = append(errs, cargo.ErrInvalidInstallRoot)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidRequestError{FieldErrors: errs}}
	}
	return true, nil
}

func (r Request) repoDir() types.FilesystemPath {
	if r.RepoDir == "" {
		return r.ProjectDir
	}
	return r.RepoDir
}

// Failed returns the failing phase, or nil.
func (r *Report) Failed() *cargo.PhaseResult {
	for _, p := range r.Phases {
		if !p.OK() {
			return p
		}
	}
	return nil
}

// Version runs only the version phase. It never fails.
func (p *Pipeline) Version(ctx context.Context, repoDir types.FilesystemPath, fallback string) pkgver.Result {
	res := pkgver.Resolve(ctx, p.Describer, string(repoDir), fallback)
	slog.Info("resolved package version", "version", res.Version, "source", res.Source)
	return res
}

// Run executes version, build and package in that order and stops at the
// first failure. The returned error is a *PhaseError or *InvalidRequestError.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	if ok, errs := req.IsValid(); !ok {
		return nil, errs[0]
	}

	report := &Report{}
	report.Version = p.Version(ctx, req.repoDir(), req.Fallback)
	report.Phases = append(report.Phases, &cargo.PhaseResult{
		Phase:   cargo.PhaseVersion,
		Command: "describe " + string(req.repoDir()),
	})

	buildOpts := req.Build
	buildOpts.ProjectDir = req.ProjectDir
	installOpts := req.Install
	installOpts.Options = req.Build
	installOpts.ProjectDir = req.ProjectDir
	installOpts.InstallRoot = req.InstallRoot

	steps := []struct {
		phase cargo.Phase
		skip  bool
		cmd   string
		exec  func() *cargo.PhaseResult
	}{
		{
			phase: cargo.PhaseBuild,
			skip:  req.SkipBuild,
			cmd:   cargo.BuildCommand(buildOpts).String(),
			exec:  func() *cargo.PhaseResult { return p.Builder.Build(ctx, buildOpts) },
		},
		{
			phase: cargo.PhasePackage,
			cmd:   cargo.InstallCommand(installOpts).String(),
			exec:  func() *cargo.PhaseResult { return p.Installer.Install(ctx, installOpts) },
		},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			res := &cargo.PhaseResult{Phase: step.phase, Command: step.cmd, ExitCode: types.ExitPhaseFailed, Err: err}
			report.Phases = append(report.Phases, res)
			return report, &PhaseError{Result: res}
		}
		if step.skip || req.DryRun {
			slog.Info("skipping phase", "phase", step.phase, "cmd", step.cmd, "dry_run", req.DryRun)
			report.Phases = append(report.Phases, &cargo.PhaseResult{Phase: step.phase, Command: step.cmd, Skipped: true})
			continue
		}
		res := step.exec()
		if res.Phase == "" {
			res.Phase = step.phase
		}
		if res.Command == "" {
			res.Command = step.cmd
		}
		report.Phases = append(report.Phases, res)
		if !res.OK() {
			slog.Error("phase failed", "phase", res.Phase, "exit_code", res.ExitCode, "error", res.Err)
			return report, &PhaseError{Result: res}
		}
	}
	return report, nil
}
