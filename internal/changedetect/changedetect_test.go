package changedetect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizchi/lsif-indexer/internal/store"
	"github.com/mizchi/lsif-indexer/internal/vcs"
)

// fakeSource is a minimal in-memory vcs.Source double.
type fakeSource struct {
	rev     string
	changes []vcs.Change
}

func (f *fakeSource) CurrentRevision(ctx context.Context) (string, error) { return f.rev, nil }
func (f *fakeSource) ListChangesSince(ctx context.Context, revision string) ([]vcs.Change, error) {
	return f.changes, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
}

func TestDetect_InitialIndex_AllAdded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	st := newTestStore(t)
	src := &fakeSource{rev: "rev1", changes: []vcs.Change{{Kind: vcs.ChangeAdded, Path: "a.go"}}}

	d := New(src, st, root)
	changes, rev, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rev1", rev)
	require.Len(t, changes, 1)
	assert.Equal(t, Added, changes[0].Kind)
	assert.NotZero(t, changes[0].ContentHash)
}

func TestDetect_ModifiedFalsePositive_Dropped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	st := newTestStore(t)

	hash, err := hashFile(filepath.Join(root, "a.go"))
	require.NoError(t, err)
	require.NoError(t, st.PutFileRecord(store.FileRecord{Path: "a.go", ContentHash: hash}))

	src := &fakeSource{rev: "rev2", changes: []vcs.Change{{Kind: vcs.ChangeModified, Path: "a.go"}}}
	d := New(src, st, root)

	changes, _, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changes, "unchanged content hash must drop the VCS's false-positive modify")
}

func TestDetect_GenuineModify(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n\nfunc F() {}\n")
	st := newTestStore(t)
	require.NoError(t, st.PutFileRecord(store.FileRecord{Path: "a.go", ContentHash: 111}))

	src := &fakeSource{rev: "rev2", changes: []vcs.Change{{Kind: vcs.ChangeModified, Path: "a.go"}}}
	d := New(src, st, root)

	changes, _, err := d.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Modified, changes[0].Kind)
}

func TestDetect_DeletedFileMissingFromDisk(t *testing.T) {
	root := t.TempDir()
	st := newTestStore(t)
	src := &fakeSource{rev: "rev2", changes: []vcs.Change{{Kind: vcs.ChangeAdded, Path: "gone.go"}}}

	d := New(src, st, root)
	changes, _, err := d.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Deleted, changes[0].Kind, "file VCS reports present but absent on disk surfaces as deleted")
}

func TestDetectRenames_IdenticalHashCollapses(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.PutFileRecord(store.FileRecord{Path: "old_name.go", ContentHash: 42}))
	d := New(&fakeSource{}, st, t.TempDir())

	changes := []Change{
		{Kind: Deleted, Path: "old_name.go"},
		{Kind: Added, Path: "new_name.go", ContentHash: 42},
	}
	out := d.detectRenames(changes)
	require.Len(t, out, 1)
	assert.Equal(t, Renamed, out[0].Kind)
	assert.Equal(t, "new_name.go", out[0].Path)
	assert.Equal(t, "old_name.go", out[0].OldPath)
}

func TestDetectRenames_DissimilarNamesStayDistinct(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.PutFileRecord(store.FileRecord{Path: "alpha.go", ContentHash: 1}))
	d := New(&fakeSource{}, st, t.TempDir())

	changes := []Change{
		{Kind: Deleted, Path: "alpha.go"},
		{Kind: Added, Path: "completely_unrelated_thing.go", ContentHash: 7},
	}
	out := d.detectRenames(changes)
	require.Len(t, out, 2)
	kinds := map[Kind]int{}
	for _, c := range out {
		kinds[c.Kind]++
	}
	assert.Equal(t, 1, kinds[Deleted])
	assert.Equal(t, 1, kinds[Added])
}
