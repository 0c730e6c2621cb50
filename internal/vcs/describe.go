// SPDX-License-Identifier: MPL-2.0

// Package vcs answers "what is the nearest tag, how far is HEAD from it, and
// what is HEAD" for a repository path, in git describe format.
//
// Two providers exist: GoGitDescriber reads the repository directly through
// go-git and needs no git binary; GitCLIDescriber shells out to
// `git describe`. Both return the sentinel errors below so callers can tell a
// missing repository from a repository without tags.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/archcrate/archcrate/internal/execx"
	"github.com/archcrate/archcrate/pkg/pkgver"
)

const (
	// DefaultAbbrev is git's default abbreviated object name length.
	DefaultAbbrev = 7

	// BackendGoGit selects GoGitDescriber.
	BackendGoGit Backend = "gogit"
	// BackendGitCLI selects GitCLIDescriber.
	BackendGitCLI Backend = "git"
)

var (
	// ErrNotRepository is returned when repoPath is not inside a git work tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNoTags is returned when no matching tag is reachable from HEAD.
	ErrNoTags = errors.New("no reachable tags")
	// ErrToolUnavailable is returned when the git binary cannot be found.
	ErrToolUnavailable = errors.New("git is not available")
	// ErrInvalidBackend is returned for an unrecognized Backend value.
	ErrInvalidBackend = errors.New("invalid describe backend")

	describePattern = regexp.MustCompile(`^(.+)-([0-9]+)-g([0-9a-f]+)$`)
)

type (
	// Backend names a describe provider.
	Backend string

	// Options tune tag selection and output format. The zero value behaves
	// like `git describe --tags`.
	Options struct {
		// Long always emits the -<n>-g<hash> suffix, even on an exact tag.
		Long bool
		// Abbrev is the abbreviated hash length; 0 means DefaultAbbrev.
		Abbrev int
		// Match restricts candidate tags to a glob (e.g. "v*").
		Match string
		// SemverOnly ignores tags that are not semantic versions.
		SemverOnly bool
	}

	// Description is the structured form of git describe output.
	Description struct {
		Tag      string
		Distance int
		// Hash is the abbreviated HEAD commit; it may be empty when the
		// provider reported an exact tag without --long.
		Hash string
	}

	// Describer is implemented by every provider. Describe satisfies
	// pkgver.Describer.
	Describer interface {
		Lookup(ctx context.Context, repoPath string) (Description, error)
		Describe(ctx context.Context, repoPath string) (string, error)
	}
)

// IsValid reports whether b names a known provider.
func (b Backend) IsValid() (bool, []error) {
	switch b {
	case BackendGoGit, BackendGitCLI:
		return true, nil
	}
	return false, []error{fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidBackend, b, BackendGoGit, BackendGitCLI)}
}

// Exact reports whether HEAD is the tagged commit.
func (d Description) Exact() bool { return d.Distance == 0 }

// Format renders d as git describe would.
func (d Description) Format(long bool) string {
	if d.Exact() && (!long || d.Hash == "") {
		return d.Tag
	}
	return d.Tag + "-" + strconv.Itoa(d.Distance) + "-g" + d.Hash
}

// ParseDescription parses git describe output. Output that does not carry a
// -<n>-g<hash> suffix is treated as an exact tag.
func ParseDescription(out string) (Description, error) {
	if out == "" {
		return Description{}, fmt.Errorf("%w: empty output", ErrNoTags)
	}
	m := describePattern.FindStringSubmatch(out)
	if m == nil {
		return Description{Tag: out}, nil
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Description{}, fmt.Errorf("parsing commit count in %q: %w", out, err)
	}
	return Description{Tag: m[1], Distance: n, Hash: m[3]}, nil
}

// New returns the provider for backend. An empty backend selects go-git.
func New(backend Backend, opts Options, runner execx.Runner) (Describer, error) {
	if backend == "" {
		backend = BackendGoGit
	}
	if ok, errs := backend.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}
	if backend == BackendGitCLI {
		return NewGitCLIDescriber(runner, opts), nil
	}
	return NewGoGitDescriber(opts), nil
}

func (o Options) abbrev() int {
	if o.Abbrev <= 0 {
		return DefaultAbbrev
	}
	return o.Abbrev
}

// accepts applies Match and SemverOnly to a tag name.
func (o Options) accepts(tag string) bool {
	if o.SemverOnly && !pkgver.IsSemverTag(tag) {
		return false
	}
	if o.Match != "" {
		// git matches tag names without path semantics, so '*' crosses '/'.
		pattern := strings.ReplaceAll(o.Match, "/", "\x00")
		ok, err := doublestar.Match(pattern, strings.ReplaceAll(tag, "/", "\x00"))
		if err != nil || !ok {
			return false
		}
	}
	return true
}
