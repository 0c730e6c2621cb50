// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// fixtureEpoch anchors commit timestamps so fixtures are reproducible.
var fixtureEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// GitRepo is a throwaway repository on disk.
type GitRepo struct {
	t    testing.TB
	Dir  string
	Repo *git.Repository
	wt   *git.Worktree
	n    int
}

// NewGitRepo initializes an empty repository in a temp dir.
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("git init %s: %v", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("opening worktree: %v", err)
	}
	return &GitRepo{t: t, Dir: dir, Repo: repo, wt: wt}
}

func (r *GitRepo) signature() *object.Signature {
	return &object.Signature{
		Name:  "Fixture",
		Email: "fixture@example.com",
		When:  fixtureEpoch.Add(time.Duration(r.n) * time.Minute),
	}
}

// Commit writes a new file and commits it, returning the commit hash.
func (r *GitRepo) Commit(msg string) plumbing.Hash {
	r.t.Helper()
	r.n++
	name := fmt.Sprintf("file%03d.txt", r.n)
	if err := os.WriteFile(filepath.Join(r.Dir, name), []byte(msg+"\n"), 0o644); err != nil {
		r.t.Fatalf("writing %s: %v", name, err)
	}
	if _, err := r.wt.Add(name); err != nil {
		r.t.Fatalf("git add %s: %v", name, err)
	}
	h, err := r.wt.Commit(msg, &git.CommitOptions{Author: r.signature(), Committer: r.signature()})
	if err != nil {
		r.t.Fatalf("git commit: %v", err)
	}
	return h
}

// Head returns the current HEAD hash.
func (r *GitRepo) Head() plumbing.Hash {
	r.t.Helper()
	ref, err := r.Repo.Head()
	if err != nil {
		r.t.Fatalf("resolving HEAD: %v", err)
	}
	return ref.Hash()
}

// Tag creates a lightweight tag at HEAD.
func (r *GitRepo) Tag(name string) {
	r.t.Helper()
	if _, err := r.Repo.CreateTag(name, r.Head(), nil); err != nil {
		r.t.Fatalf("git tag %s: %v", name, err)
	}
}

// AnnotatedTag creates an annotated tag at HEAD.
func (r *GitRepo) AnnotatedTag(name, msg string) {
	r.t.Helper()
	r.n++
	_, err := r.Repo.CreateTag(name, r.Head(), &git.CreateTagOptions{
		Tagger:  r.signature(),
		Message: msg,
	})
	if err != nil {
		r.t.Fatalf("git tag -a %s: %v", name, err)
	}
}

// Branch creates and checks out a new branch at HEAD.
func (r *GitRepo) Branch(name string) {
	r.t.Helper()
	err := r.wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	if err != nil {
		r.t.Fatalf("git checkout -b %s: %v", name, err)
	}
}

// Checkout switches to an existing branch.
func (r *GitRepo) Checkout(name string) {
	r.t.Helper()
	if err := r.wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		r.t.Fatalf("git checkout %s: %v", name, err)
	}
}

// Subdir creates a directory inside the work tree and returns its path.
func (r *GitRepo) Subdir(name string) string {
	r.t.Helper()
	dir := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.t.Fatalf("mkdir %s: %v", dir, err)
	}
	return dir
}

// Merge records a merge commit of branch into the current branch, like
// `git merge --no-ff`. The work tree keeps the current branch's files.
func (r *GitRepo) Merge(branch string) plumbing.Hash {
	r.t.Helper()
	ref, err := r.Repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		r.t.Fatalf("resolving branch %s: %v", branch, err)
	}
	r.n++
	msg := "Merge branch '" + branch + "'"
	h, err := r.wt.Commit(msg, &git.CommitOptions{
		Author:            r.signature(),
		Committer:         r.signature(),
		Parents:           []plumbing.Hash{r.Head(), ref.Hash()},
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.t.Fatalf("git merge %s: %v", branch, err)
	}
	return h
}
