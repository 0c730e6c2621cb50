// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/archcrate/archcrate/internal/config"
	"github.com/archcrate/archcrate/internal/execx"
	"github.com/archcrate/archcrate/internal/vcs"
	"github.com/archcrate/archcrate/pkg/pkgver"
)

type (
	stubConfig struct {
		cfg *config.Config
		err error
		got config.LoadOptions
	}

	fakeRunner struct {
		calls []execx.Command
		// results are keyed by the first argument (the cargo subcommand).
		results map[string]*execx.Result
		err     error
	}

	stubDescriber struct {
		out string
		err error
	}

	describerCall struct {
		backend vcs.Backend
		opts    vcs.Options
	}
)

func (s *stubConfig) Load(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
	s.got = opts
	if s.err != nil {
		return nil, s.err
	}
	cfg := config.DefaultConfig()
	if s.cfg != nil {
		cfg = s.cfg
	}
	clone := *cfg
	return &clone, nil
}

func (f *fakeRunner) Run(_ context.Context, c execx.Command) (*execx.Result, error) {
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	if len(c.Args) > 0 {
		if res, ok := f.results[c.Args[0]]; ok {
			return res, nil
		}
	}
	return &execx.Result{}, nil
}

func (d stubDescriber) Describe(context.Context, string) (string, error) { return d.out, d.err }

// describers returns a factory that always yields d and records its inputs.
func describers(d pkgver.Describer, calls *[]describerCall) DescriberFactory {
	return func(backend vcs.Backend, opts vcs.Options, _ execx.Runner) (pkgver.Describer, error) {
		if calls != nil {
			*calls = append(*calls, describerCall{backend: backend, opts: opts})
		}
		if ok, errs := backend.IsValid(); !ok {
			return nil, errs[0]
		}
		return d, nil
	}
}

// execute runs the command tree in-process. Commands install the process-wide
// slog default, so tests calling it do not run in parallel.
func execute(t *testing.T, deps Dependencies, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	deps.Stdout = &outBuf
	deps.Stderr = &errBuf
	if deps.Config == nil {
		deps.Config = &stubConfig{}
	}
	if deps.Runner == nil {
		deps.Runner = &fakeRunner{}
	}

	app, err := NewApp(deps)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	root := NewRootCommand(app)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}
