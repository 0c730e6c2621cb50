// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/archcrate/archcrate/internal/execx"
	"github.com/archcrate/archcrate/pkg/types"
)

// maxExcludes bounds the describe retries spent skipping rejected tags.
const maxExcludes = 100

// GitCLIDescriber runs `git describe` in the repository directory.
type GitCLIDescriber struct {
	runner execx.Runner
	opts   Options
}

// NewGitCLIDescriber creates a describer that shells out to git. A nil runner
// uses the OS runner.
func NewGitCLIDescriber(runner execx.Runner, opts Options) *GitCLIDescriber {
	if runner == nil {
		runner = execx.NewOSRunner()
	}
	return &GitCLIDescriber{runner: runner, opts: opts}
}

// Args returns the git arguments used for the configured options.
func (d *GitCLIDescriber) Args() []string {
	args := []string{"describe", "--tags", "--abbrev=" + strconv.Itoa(d.opts.abbrev())}
	if d.opts.Long {
		args = append(args, "--long")
	}
	if d.opts.Match != "" {
		args = append(args, "--match", d.opts.Match)
	}
	return args
}

// Describe returns the raw describe output.
func (d *GitCLIDescriber) Describe(ctx context.Context, repoPath string) (string, error) {
	desc, err := d.Lookup(ctx, repoPath)
	if err != nil {
		return "", err
	}
	return desc.Format(d.opts.Long), nil
}

// Lookup runs git describe and parses its output. git has no semver filter,
// so a rejected tag is passed back as --exclude and describe runs again.
func (d *GitCLIDescriber) Lookup(ctx context.Context, repoPath string) (Description, error) {
	var excluded []string
	for {
		desc, err := d.describe(ctx, repoPath, excluded)
		if err != nil {
			return Description{}, err
		}
		if d.opts.accepts(desc.Tag) {
			return desc, nil
		}
		if slices.Contains(excluded, desc.Tag) || len(excluded) >= maxExcludes {
			return Description{}, fmt.Errorf("%w: nearest tag %q is not a semantic version", ErrNoTags, desc.Tag)
		}
		excluded = append(excluded, desc.Tag)
	}
}

func (d *GitCLIDescriber) describe(ctx context.Context, repoPath string, excluded []string) (Description, error) {
	args := d.Args()
	for _, tag := range excluded {
		args = append(args, "--exclude", tag)
	}
	res, err := d.runner.Run(ctx, execx.Command{
		Name: "git",
		Args: args,
		Dir:  types.FilesystemPath(repoPath),
	})
	if err != nil {
		if errors.Is(err, execx.ErrToolNotFound) {
			return Description{}, fmt.Errorf("%w: %w", ErrToolUnavailable, err)
		}
		return Description{}, err
	}
	if !res.ExitCode.IsSuccess() {
		return Description{}, classifyStderr(res.Stderr, res.ExitCode)
	}
	return ParseDescription(strings.TrimSpace(res.Stdout))
}

func classifyStderr(stderr string, code types.ExitCode) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "not a git repository"):
		return fmt.Errorf("%w: %s", ErrNotRepository, strings.TrimSpace(stderr))
	case strings.Contains(lower, "no names found"),
		strings.Contains(lower, "no tags can describe"),
		strings.Contains(lower, "cannot describe"):
		return fmt.Errorf("%w: %s", ErrNoTags, strings.TrimSpace(stderr))
	}
	return fmt.Errorf("git describe exited with status %s: %s", code, strings.TrimSpace(stderr))
}
