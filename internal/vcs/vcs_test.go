package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func testSignature() *object.Signature {
	return &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()}
}

func initRepoWithCommit(t *testing.T, files map[string]string) (string, *gogit.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: testSignature(),
	})
	require.NoError(t, err)
	return dir, repo
}

func TestOpenGitSource_NotARepo(t *testing.T) {
	_, err := OpenGitSource(t.TempDir())
	require.ErrorIs(t, err, ErrNotARepo)
}

func TestCurrentRevision_ReturnsHeadHash(t *testing.T) {
	dir, _ := initRepoWithCommit(t, map[string]string{"a.go": "package a\n"})
	src, err := OpenGitSource(dir)
	require.NoError(t, err)

	rev, err := src.CurrentRevision(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rev)
}

func TestListChangesSince_EmptyRevisionReturnsAllAsAdded(t *testing.T) {
	dir, _ := initRepoWithCommit(t, map[string]string{
		"a.go": "package a\n",
		"b.go": "package a\n",
	})
	src, err := OpenGitSource(dir)
	require.NoError(t, err)

	changes, err := src.ListChangesSince(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	for _, c := range changes {
		require.Equal(t, ChangeAdded, c.Kind)
	}
}

func TestListChangesSince_DetectsModifyAndAdd(t *testing.T) {
	dir, repo := initRepoWithCommit(t, map[string]string{"a.go": "package a\n"})
	src, err := OpenGitSource(dir)
	require.NoError(t, err)

	base, err := src.CurrentRevision(context.Background())
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n\nfunc F() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package a\n"), 0o644))
	_, err = wt.Add("a.go")
	require.NoError(t, err)
	_, err = wt.Add("b.go")
	require.NoError(t, err)
	_, err = wt.Commit("second", &gogit.CommitOptions{Author: testSignature()})
	require.NoError(t, err)

	changes, err := src.ListChangesSince(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	kinds := map[string]ChangeKind{}
	for _, c := range changes {
		kinds[c.Path] = c.Kind
	}
	require.Equal(t, ChangeModified, kinds["a.go"])
	require.Equal(t, ChangeAdded, kinds["b.go"])
}

func TestListChangesSince_DetectsUncommittedModification(t *testing.T) {
	dir, _ := initRepoWithCommit(t, map[string]string{"a.go": "package a\n"})
	src, err := OpenGitSource(dir)
	require.NoError(t, err)

	base, err := src.CurrentRevision(context.Background())
	require.NoError(t, err)

	// Saved but never staged or committed: this is exactly what watch mode
	// needs to notice on every debounced file save.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n\nfunc F() {}\n"), 0o644))

	changes, err := src.ListChangesSince(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, ChangeModified, changes[0].Kind)
	require.Equal(t, "a.go", changes[0].Path)
}

func TestListChangesSince_DetectsUntrackedFile(t *testing.T) {
	dir, _ := initRepoWithCommit(t, map[string]string{"a.go": "package a\n"})
	src, err := OpenGitSource(dir)
	require.NoError(t, err)

	base, err := src.CurrentRevision(context.Background())
	require.NoError(t, err)

	// Never git-added at all, not just unstaged.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package a\n"), 0o644))

	changes, err := src.ListChangesSince(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, ChangeAdded, changes[0].Kind)
	require.Equal(t, "b.go", changes[0].Path)
}

func TestListChangesSince_WorktreeStateWinsOverCommittedDiff(t *testing.T) {
	dir, repo := initRepoWithCommit(t, map[string]string{"a.go": "package a\n"})
	src, err := OpenGitSource(dir)
	require.NoError(t, err)

	base, err := src.CurrentRevision(context.Background())
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n\nfunc F() {}\n"), 0o644))
	_, err = wt.Add("a.go")
	require.NoError(t, err)
	_, err = wt.Commit("second", &gogit.CommitOptions{Author: testSignature()})
	require.NoError(t, err)

	// Delete the file on disk without staging the deletion: the committed
	// diff says "modified", the working tree says "deleted", and the
	// working tree's answer must win.
	require.NoError(t, os.Remove(filepath.Join(dir, "a.go")))

	changes, err := src.ListChangesSince(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, ChangeDeleted, changes[0].Kind)
	require.Equal(t, "a.go", changes[0].Path)
}
