// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// maxCandidates matches git describe's default --candidates.
const maxCandidates = 10

type (
	// GoGitDescriber implements describe on top of go-git.
	GoGitDescriber struct {
		opts Options
	}

	// tagCandidate is one tag pointing at a commit.
	tagCandidate struct {
		name      string
		annotated bool
		when      time.Time
	}
)

// NewGoGitDescriber creates a go-git backed describer.
func NewGoGitDescriber(opts Options) *GoGitDescriber {
	return &GoGitDescriber{opts: opts}
}

// Describe returns git describe output for the repository containing repoPath.
func (d *GoGitDescriber) Describe(ctx context.Context, repoPath string) (string, error) {
	desc, err := d.Lookup(ctx, repoPath)
	if err != nil {
		return "", err
	}
	return desc.Format(d.opts.Long), nil
}

// Lookup finds the tag nearest to HEAD. repoPath may be any directory inside
// the work tree; parent directories are searched for .git.
func (d *GoGitDescriber) Lookup(ctx context.Context, repoPath string) (Description, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Description{}, fmt.Errorf("%w: %s", ErrNotRepository, repoPath)
		}
		return Description{}, fmt.Errorf("opening repository %s: %w", repoPath, err)
	}

	head, err := repo.Head()
	if err != nil {
		// An empty repository has an unborn HEAD and therefore nothing to describe.
		return Description{}, fmt.Errorf("%w: resolving HEAD: %w", ErrNoTags, err)
	}

	tags, err := d.collectTags(repo)
	if err != nil {
		return Description{}, err
	}
	if len(tags) == 0 {
		return Description{}, fmt.Errorf("%w: repository has no matching tags", ErrNoTags)
	}

	tagged, distance, err := nearestTagged(ctx, repo, head.Hash(), tags)
	if err != nil {
		return Description{}, err
	}

	hash := head.Hash().String()
	if n := d.opts.abbrev(); n < len(hash) {
		hash = hash[:n]
	}

	return Description{
		Tag:      pickTag(tags[tagged]).name,
		Distance: distance,
		Hash:     hash,
	}, nil
}

// collectTags maps commit hashes to the accepted tags that point at them.
// Annotated tags are peeled to their commit.
func (d *GoGitDescriber) collectTags(repo *git.Repository) (map[plumbing.Hash][]tagCandidate, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer iter.Close()

	out := make(map[plumbing.Hash][]tagCandidate)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !d.opts.accepts(name) {
			return nil
		}

		cand := tagCandidate{name: name}
		target := ref.Hash()

		tagObj, tagErr := repo.TagObject(ref.Hash())
		switch {
		case tagErr == nil:
			commit, commitErr := tagObj.Commit()
			if commitErr != nil {
				// Tags of trees or blobs cannot describe a commit.
				return nil
			}
			cand.annotated = true
			cand.when = tagObj.Tagger.When
			target = commit.Hash
		case errors.Is(tagErr, plumbing.ErrObjectNotFound):
			commit, commitErr := repo.CommitObject(target)
			if commitErr != nil {
				return nil
			}
			cand.when = commit.Committer.When
		default:
			return fmt.Errorf("reading tag %s: %w", name, tagErr)
		}

		out[target] = append(out[target], cand)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// pickTag chooses among tags on the same commit: annotated beats
// lightweight, then the newest, then the lexically greatest name.
func pickTag(cands []tagCandidate) tagCandidate {
	best := cands[0]
	for _, c := range cands[1:] {
		switch {
		case c.annotated != best.annotated:
			if c.annotated {
				best = c
			}
		case !c.when.Equal(best.when):
			if c.when.After(best.when) {
				best = c
			}
		case strings.Compare(c.name, best.name) > 0:
			best = c
		}
	}
	return best
}

// nearestTagged picks the tag git describe would: it walks history from
// start newest committer date first, takes the first maxCandidates tagged
// commits and returns the one with the fewest commits reachable from start
// but not from it. Ties go to the commit found first.
func nearestTagged(ctx context.Context, repo *git.Repository, start plumbing.Hash, tags map[plumbing.Hash][]tagCandidate) (plumbing.Hash, int, error) {
	if _, ok := tags[start]; ok {
		return start, 0, nil
	}

	candidates, err := taggedByDate(ctx, repo, start, tags)
	if err != nil {
		return plumbing.ZeroHash, 0, err
	}
	if len(candidates) == 0 {
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: no tag is reachable from HEAD", ErrNoTags)
	}

	best, bestDistance := plumbing.ZeroHash, -1
	for _, h := range candidates {
		distance, err := countExclusive(ctx, repo, start, h)
		if err != nil {
			return plumbing.ZeroHash, 0, err
		}
		if bestDistance < 0 || distance < bestDistance {
			best, bestDistance = h, distance
		}
	}
	return best, bestDistance, nil
}

// taggedByDate returns up to maxCandidates tagged commits reachable from
// start, newest committer date first.
func taggedByDate(ctx context.Context, repo *git.Repository, start plumbing.Hash, tags map[plumbing.Hash][]tagCandidate) ([]plumbing.Hash, error) {
	iter, err := repo.Log(&git.LogOptions{From: start, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", start, err)
	}
	defer iter.Close()

	var found []plumbing.Hash
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := tags[c.Hash]; ok {
			found = append(found, c.Hash)
			if len(found) == maxCandidates {
				return storer.ErrStop
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", start, err)
	}
	return found, nil
}

// countExclusive counts commits reachable from head but not from base,
// which is the number git describe reports.
func countExclusive(ctx context.Context, repo *git.Repository, head, base plumbing.Hash) (int, error) {
	excluded, err := ancestors(ctx, repo, base)
	if err != nil {
		return 0, err
	}

	count := 0
	err = walk(ctx, repo, head, func(c *object.Commit) bool {
		if excluded[c.Hash] {
			return false
		}
		count++
		return true
	})
	return count, err
}

func ancestors(ctx context.Context, repo *git.Repository, from plumbing.Hash) (map[plumbing.Hash]bool, error) {
	set := make(map[plumbing.Hash]bool)
	err := walk(ctx, repo, from, func(c *object.Commit) bool {
		set[c.Hash] = true
		return true
	})
	return set, err
}

// walk visits every commit reachable from start once. visit returns false to
// stop descending into that commit's parents.
func walk(ctx context.Context, repo *git.Repository, start plumbing.Hash, visit func(*object.Commit) bool) error {
	stack := []plumbing.Hash{start}
	seen := map[plumbing.Hash]bool{start: true}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		commit, err := repo.CommitObject(h)
		if err != nil {
			return fmt.Errorf("reading commit %s: %w", h, err)
		}
		if !visit(commit) {
			continue
		}
		for _, p := range commit.ParentHashes {
			if !seen[p] {
				seen[p] = true
				stack = append(stack, p)
			}
		}
	}
	return nil
}
