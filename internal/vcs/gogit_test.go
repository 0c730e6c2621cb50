// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/archcrate/archcrate/internal/testutil"
)

func TestGoGitDescriber_ExactTag(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("initial")
	repo.Tag("v2.0.1")

	got, err := NewGoGitDescriber(Options{}).Describe(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if got != "v2.0.1" {
		t.Errorf("Describe() = %q, want %q", got, "v2.0.1")
	}
}

func TestGoGitDescriber_ExactTagLong(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("initial")
	repo.Tag("v2.0.1")

	got, err := NewGoGitDescriber(Options{Long: true}).Describe(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := "v2.0.1-0-g" + repo.Head().String()[:DefaultAbbrev]
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestGoGitDescriber_CommitsSinceTag(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("initial")
	repo.Tag("v1.2.0")
	repo.Commit("second")
	repo.Commit("third")
	repo.Commit("fourth")

	desc, err := NewGoGitDescriber(Options{}).Lookup(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if desc.Tag != "v1.2.0" || desc.Distance != 3 {
		t.Errorf("Lookup() = %+v, want tag v1.2.0 at distance 3", desc)
	}
	if desc.Hash != repo.Head().String()[:7] {
		t.Errorf("Hash = %q, want HEAD prefix %q", desc.Hash, repo.Head().String()[:7])
	}
	if got := desc.Format(false); got != "v1.2.0-3-g"+desc.Hash {
		t.Errorf("Format() = %q", got)
	}
}

func TestGoGitDescriber_NearestTagWins(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("one")
	repo.Tag("v1.0.0")
	repo.Commit("two")
	repo.AnnotatedTag("v1.1.0", "release 1.1.0")
	repo.Commit("three")

	desc, err := NewGoGitDescriber(Options{}).Lookup(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if desc.Tag != "v1.1.0" || desc.Distance != 1 {
		t.Errorf("Lookup() = %+v, want v1.1.0 at distance 1", desc)
	}
}

func TestGoGitDescriber_MergeHistoryPicksFewestExclusiveCommits(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("base")
	repo.Branch("side")
	repo.Commit("side work")
	repo.Tag("v1.0.0")
	repo.Checkout("master")
	for i := range 10 {
		repo.Commit(fmt.Sprintf("main %d", i))
	}
	repo.Tag("v2.0.0")
	repo.Commit("after release")
	repo.Merge("side")

	desc, err := NewGoGitDescriber(Options{}).Lookup(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	// Not reachable from v2.0.0: the merge, "after release" and "side work".
	if desc.Tag != "v2.0.0" || desc.Distance != 3 {
		t.Errorf("Lookup() = %+v, want v2.0.0 at distance 3", desc)
	}
}

func TestGoGitDescriber_AnnotatedPreferredOnSameCommit(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("one")
	repo.Tag("nightly")
	repo.AnnotatedTag("v3.0.0", "release")

	got, err := NewGoGitDescriber(Options{}).Describe(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if got != "v3.0.0" {
		t.Errorf("Describe() = %q, want %q", got, "v3.0.0")
	}
}

func TestGoGitDescriber_MatchAndSemverFilters(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("one")
	repo.Tag("v0.9.0")
	repo.Commit("two")
	repo.Tag("snapshot")

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "any tag", opts: Options{}, want: "snapshot"},
		{name: "glob", opts: Options{Match: "v*"}, want: "v0.9.0-1-g"},
		{name: "semver only", opts: Options{SemverOnly: true}, want: "v0.9.0-1-g"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewGoGitDescriber(tt.opts).Describe(context.Background(), repo.Dir)
			if err != nil {
				t.Fatalf("Describe() error = %v", err)
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("Describe() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestGoGitDescriber_Subdirectory(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("one")
	repo.Tag("v1.0.0")
	sub := repo.Subdir("crates/cli")

	got, err := NewGoGitDescriber(Options{}).Describe(context.Background(), sub)
	if err != nil {
		t.Fatalf("Describe() from subdirectory error = %v", err)
	}
	if got != "v1.0.0" {
		t.Errorf("Describe() = %q, want %q", got, "v1.0.0")
	}
}

func TestGoGitDescriber_Abbrev(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("one")
	repo.Tag("v1.0.0")
	repo.Commit("two")

	desc, err := NewGoGitDescriber(Options{Abbrev: 12}).Lookup(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(desc.Hash) != 12 {
		t.Errorf("len(Hash) = %d, want 12", len(desc.Hash))
	}
}

func TestGoGitDescriber_Errors(t *testing.T) {
	t.Parallel()

	t.Run("not a repository", func(t *testing.T) {
		t.Parallel()
		_, err := NewGoGitDescriber(Options{}).Describe(context.Background(), t.TempDir())
		if !errors.Is(err, ErrNotRepository) {
			t.Errorf("Describe() error = %v, want ErrNotRepository", err)
		}
	})

	t.Run("empty repository", func(t *testing.T) {
		t.Parallel()
		repo := testutil.NewGitRepo(t)
		_, err := NewGoGitDescriber(Options{}).Describe(context.Background(), repo.Dir)
		if !errors.Is(err, ErrNoTags) {
			t.Errorf("Describe() error = %v, want ErrNoTags", err)
		}
	})

	t.Run("no tags", func(t *testing.T) {
		t.Parallel()
		repo := testutil.NewGitRepo(t)
		repo.Commit("one")
		_, err := NewGoGitDescriber(Options{}).Describe(context.Background(), repo.Dir)
		if !errors.Is(err, ErrNoTags) {
			t.Errorf("Describe() error = %v, want ErrNoTags", err)
		}
	})

	t.Run("filtered out", func(t *testing.T) {
		t.Parallel()
		repo := testutil.NewGitRepo(t)
		repo.Commit("one")
		repo.Tag("nightly")
		_, err := NewGoGitDescriber(Options{SemverOnly: true}).Describe(context.Background(), repo.Dir)
		if !errors.Is(err, ErrNoTags) {
			t.Errorf("Describe() error = %v, want ErrNoTags", err)
		}
	})

	t.Run("tag on another branch", func(t *testing.T) {
		t.Parallel()
		repo := testutil.NewGitRepo(t)
		repo.Commit("root")
		repo.Branch("release")
		repo.Commit("release only")
		repo.Tag("v9.9.9")
		repo.Checkout("master")
		repo.Commit("main line")
		_, err := NewGoGitDescriber(Options{}).Describe(context.Background(), repo.Dir)
		if !errors.Is(err, ErrNoTags) {
			t.Errorf("Describe() error = %v, want ErrNoTags for unreachable tag", err)
		}
	})
}
