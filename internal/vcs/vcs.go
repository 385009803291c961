// Package vcs abstracts the version-control backend that change detection
// diffs against. Source is the seam: a Git working tree is the only
// implementation today, but nothing above this package assumes Git.
package vcs

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/merkletrie"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotARepo is returned when the working directory is not under version
// control this package recognizes.
var ErrNotARepo = errors.New("vcs: not a repository")

// ChangeKind classifies one entry of a ListChangesSince result.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeRenamed  ChangeKind = "renamed"
)

// Change describes one file-level difference between two revisions.
type Change struct {
	Kind   ChangeKind
	Path   string
	OldPath string // set only for ChangeRenamed
}

// Source is the interface the change detector consumes. Implementations
// must be safe to call from a single goroutine at a time; the differential
// indexer never calls it concurrently with itself.
type Source interface {
	// CurrentRevision returns an opaque identifier for the working tree's
	// current state (a commit hash for Git).
	CurrentRevision(ctx context.Context) (string, error)

	// ListChangesSince returns every file that differs between revision
	// and the current state. An empty revision means "no prior revision":
	// implementations must return every tracked file as ChangeAdded.
	ListChangesSince(ctx context.Context, revision string) ([]Change, error)
}

// GitSource is a Source backed by a local Git working tree via go-git.
type GitSource struct {
	repo *gogit.Repository
}

// OpenGitSource opens the Git repository rooted at (or above) dir.
func OpenGitSource(dir string) (*GitSource, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotARepo, err)
	}
	return &GitSource{repo: repo}, nil
}

// CurrentRevision returns the HEAD commit hash.
func (g *GitSource) CurrentRevision(ctx context.Context) (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil // unborn branch, no commits yet
		}
		return "", fmt.Errorf("vcs: resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// ListChangesSince builds the candidate set spec §4.3 asks for: the
// committed diff between revision and HEAD, overlaid with whatever the
// working tree currently looks like (modified, newly added, and untracked
// files), since a saved-but-uncommitted edit has no commit to diff against
// yet. Worktree state wins over the committed diff for any path both touch,
// since it reflects what's actually on disk right now.
func (g *GitSource) ListChangesSince(ctx context.Context, revision string) ([]Change, error) {
	changes := make(map[string]Change)

	head, err := g.repo.Head()
	switch {
	case err == nil:
		headCommit, err := g.repo.CommitObject(head.Hash())
		if err != nil {
			return nil, fmt.Errorf("vcs: load HEAD commit: %w", err)
		}
		headTree, err := headCommit.Tree()
		if err != nil {
			return nil, fmt.Errorf("vcs: load HEAD tree: %w", err)
		}

		var committed []Change
		if revision == "" {
			committed, err = treeAsAdded(headTree)
		} else {
			committed, err = diffTrees(g.repo, revision, headTree)
		}
		if err != nil {
			return nil, err
		}
		mergeChanges(changes, committed)
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Unborn branch: no commits yet, so nothing to diff committed trees
		// against. Whatever the worktree status below finds is the entire
		// candidate set.
	default:
		return nil, fmt.Errorf("vcs: resolve HEAD: %w", err)
	}

	wt, err := g.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("vcs: worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("vcs: worktree status: %w", err)
	}
	for path, fs := range status {
		if fs.Staging == gogit.Unmodified && fs.Worktree == gogit.Unmodified {
			continue
		}
		changes[path] = Change{Kind: statusChangeKind(fs), Path: path}
	}

	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		out = append(out, c)
	}
	return out, nil
}

func diffTrees(repo *gogit.Repository, revision string, headTree *object.Tree) ([]Change, error) {
	baseCommit, err := repo.CommitObject(plumbing.NewHash(revision))
	if err != nil {
		return nil, fmt.Errorf("vcs: load base commit %s: %w", revision, err)
	}
	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("vcs: load base tree: %w", err)
	}

	diffs, err := baseTree.Diff(headTree)
	if err != nil {
		return nil, fmt.Errorf("vcs: diff trees: %w", err)
	}

	changes := make([]Change, 0, len(diffs))
	for _, d := range diffs {
		action, err := d.Action()
		if err != nil {
			return nil, fmt.Errorf("vcs: resolve change action: %w", err)
		}
		switch action {
		case merkletrie.Insert:
			changes = append(changes, Change{Kind: ChangeAdded, Path: d.To.Name})
		case merkletrie.Delete:
			changes = append(changes, Change{Kind: ChangeDeleted, Path: d.From.Name})
		case merkletrie.Modify:
			changes = append(changes, Change{Kind: ChangeModified, Path: d.To.Name})
		}
	}
	return changes, nil
}

func mergeChanges(into map[string]Change, changes []Change) {
	for _, c := range changes {
		into[c.Path] = c
	}
}

// statusChangeKind classifies a worktree status entry. Untracked files and
// anything staged as newly added count as ChangeAdded; a deletion on either
// side of the index counts as ChangeDeleted; everything else (modified,
// staged, or a staged/worktree combination not otherwise covered) is
// ChangeModified.
func statusChangeKind(fs *gogit.FileStatus) ChangeKind {
	switch {
	case fs.Worktree == gogit.Untracked || fs.Staging == gogit.Added:
		return ChangeAdded
	case fs.Worktree == gogit.Deleted || fs.Staging == gogit.Deleted:
		return ChangeDeleted
	default:
		return ChangeModified
	}
}

func treeAsAdded(tree *object.Tree) ([]Change, error) {
	var changes []Change
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err != nil {
			break // io.EOF ends the walk
		}
		if entry.Mode.IsFile() {
			changes = append(changes, Change{Kind: ChangeAdded, Path: name})
		}
	}
	return changes, nil
}
