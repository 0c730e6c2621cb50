// SPDX-License-Identifier: MPL-2.0

package pkgver

import (
	"context"
	"errors"
	"log/slog"
)

const (
	// SourceDescribe means the version was derived from describe output.
	SourceDescribe Source = "describe"
	// SourceFallback means the configured default was used verbatim.
	SourceFallback Source = "fallback"
)

// ErrEmptyDescribe is recorded as the cause when a describer succeeds but
// returns nothing usable.
var ErrEmptyDescribe = errors.New("empty describe output")

type (
	// Source identifies where a resolved version came from.
	Source string

	// Describer queries version control for the nearest tag of the repository
	// at repoPath, formatted as git describe output.
	Describer interface {
		Describe(ctx context.Context, repoPath string) (string, error)
	}

	// Result is the outcome of Resolve. Cause is set only for SourceFallback
	// and is informational: resolution itself never fails.
	Result struct {
		Version  string
		Source   Source
		Describe string
		Cause    error
	}
)

// String returns the resolved version.
func (r Result) String() string { return r.Version }

// Resolve returns the normalized describe output for repoPath, or fallback
// unchanged when the describer fails. A nil describer always yields the
// fallback.
func Resolve(ctx context.Context, d Describer, repoPath, fallback string) Result {
	if d == nil {
		return Result{Version: fallback, Source: SourceFallback, Cause: errors.New("no describer configured")}
	}

	out, err := d.Describe(ctx, repoPath)
	if err == nil && out == "" {
		err = ErrEmptyDescribe
	}
	if err != nil {
		slog.Debug("version query failed, using fallback", "repo", repoPath, "fallback", fallback, "error", err)
		return Result{Version: fallback, Source: SourceFallback, Cause: err}
	}

	return Result{Version: Normalize(out), Source: SourceDescribe, Describe: out}
}
