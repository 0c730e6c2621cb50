// SPDX-License-Identifier: MPL-2.0

// Package execx runs external tools (cargo, git) and reports their exit
// status as data instead of as control flow.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/archcrate/archcrate/pkg/types"
)

// diagnosticLines is how many trailing stderr lines are kept on a Result.
const diagnosticLines = 20

// ErrToolNotFound is returned when the requested binary is not on PATH.
var ErrToolNotFound = errors.New("tool not found")

type (
	// Command describes one external tool invocation. Dir and Env are always
	// explicit; an empty Env inherits the current process environment.
	Command struct {
		Name   string
		Args   []string
		Dir    types.FilesystemPath
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result captures the outcome of a command that was started.
	// Stdout is only populated when Command.Stdout was nil.
	Result struct {
		ExitCode types.ExitCode
		Stdout   string
		Stderr   string
	}

	// Runner executes commands. Tests substitute a fake.
	Runner interface {
		Run(ctx context.Context, c Command) (*Result, error)
	}

	// OSRunner runs commands with os/exec.
	OSRunner struct {
		// LookPath resolves the binary; defaults to exec.LookPath.
		LookPath func(file string) (string, error)
	}
)

// NewOSRunner creates a Runner backed by os/exec.
func NewOSRunner() *OSRunner {
	return &OSRunner{LookPath: exec.LookPath}
}

// String renders the command line for logs and dry runs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Run starts the command and waits for it. A non-zero exit is reported via
// Result.ExitCode with a nil error; the error is reserved for commands that
// could not be started at all.
func (r *OSRunner) Run(ctx context.Context, c Command) (*Result, error) {
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	bin, err := lookPath(c.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrToolNotFound, c.Name, err)
	}

	cmd := exec.CommandContext(ctx, bin, c.Args...)
	cmd.Dir = string(c.Dir)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	// stderr is always teed so failures carry a diagnostic.
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(c.Stderr, &stderr)
	}

	slog.Debug("running external tool", "cmd", c.String(), "dir", c.Dir)
	runErr := cmd.Run()

	result := &Result{Stdout: stdout.String(), Stderr: tail(stderr.String(), diagnosticLines)}
	if runErr == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		if ok, _ := code.IsValid(); !ok {
			// Killed by a signal; ExitCode() is -1.
			code = 1
		}
		result.ExitCode = code
		return result, nil
	}

	return nil, fmt.Errorf("running %s: %w", c.Name, runErr)
}

// tail keeps the last n lines of s.
func tail(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
