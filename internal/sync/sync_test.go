package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/archmirror/internal/graph"
	"github.com/dusk-indust/archmirror/internal/mirror"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	m, err := mirror.New(root, filepath.Join(t.TempDir(), "mirrors"))
	require.NoError(t, err)
	e, err := NewEngine(root, graph.New(), m, nil, nil, graph.DetailStandard)
	require.NoError(t, err)
	return e
}

func TestSync_ForcedDirectoryRescan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "a = 1\n")
	writeFile(t, filepath.Join(root, "b.py"), "b = 2\n")
	writeFile(t, filepath.Join(root, "c.py"), "c = 3\n")

	e := newTestEngine(t, root)
	res, err := e.Sync([]string{root}, true, true)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 3}, res)

	assert.Equal(t, 3, e.Graph().NodeKindCounts()[graph.KindFile])
}

func TestSync_IncrementalAfterEdit(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.py")
	writeFile(t, a, "a = 1\n")
	writeFile(t, filepath.Join(root, "b.py"), "b = 2\n")
	writeFile(t, filepath.Join(root, "c.py"), "c = 3\n")

	e := newTestEngine(t, root)
	_, err := e.Sync([]string{root}, true, true)
	require.NoError(t, err)

	writeFile(t, a, "a = 99\n")
	res, err := e.Sync([]string{root}, true, false)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1}, res)

	// Nothing further changed, so a second pass is a no-op.
	res, err = e.Sync([]string{root}, true, false)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestSync_DeletedFile(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.py")
	writeFile(t, a, "a = 1\n")
	writeFile(t, filepath.Join(root, "b.py"), "b = 2\n")

	e := newTestEngine(t, root)
	_, err := e.Sync([]string{root}, true, true)
	require.NoError(t, err)
	require.True(t, e.Mirror().Exists(a))

	require.NoError(t, os.Remove(a))
	res, err := e.Sync([]string{root}, false, false)
	require.NoError(t, err)
	assert.Equal(t, Result{Removed: 1}, res)

	assert.False(t, e.Mirror().Exists(a))
	_, ok := e.Graph().GetNode(graph.FileID(a), graph.DetailMinimal)
	assert.False(t, ok)
}

func TestSync_NewFileCreatesAncestorChain(t *testing.T) {
	root := t.TempDir()
	e := newTestEngine(t, root)
	_, err := e.Sync([]string{root}, true, true)
	require.NoError(t, err)

	nested := filepath.Join(root, "pkg", "deep", "new.py")
	writeFile(t, nested, "n = 1\n")

	res, err := e.Sync([]string{nested}, false, false)
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1}, res)

	g := e.Graph()
	_, ok := g.GetNode(graph.FileID(nested), graph.DetailMinimal)
	assert.True(t, ok)
	_, ok = g.GetNode(graph.DirID(filepath.Join(root, "pkg", "deep")), graph.DetailMinimal)
	assert.True(t, ok, "unscanned ancestors are created on demand")
	_, ok = g.GetRelationship(graph.DirID(filepath.Join(root, "pkg")), graph.DirID(filepath.Join(root, "pkg", "deep")), graph.DetailMinimal)
	assert.True(t, ok)

	// Each created ancestor gets a directory mirror too, keeping the graph
	// and the mirror store symmetric.
	assert.True(t, e.Mirror().Exists(filepath.Join(root, "pkg")))
	assert.True(t, e.Mirror().Exists(filepath.Join(root, "pkg", "deep")))
}

func TestSync_ForcedSingleFile(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.py")
	writeFile(t, a, "a = 1\n")

	e := newTestEngine(t, root)
	_, err := e.Sync([]string{root}, true, true)
	require.NoError(t, err)

	// Force replaces even an unchanged file.
	res, err := e.Sync([]string{a}, false, true)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1}, res)
	assert.True(t, e.Mirror().IsUpToDate(a))
}

func TestDetectChanges_ModifiedExactlyOnce(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.py")
	writeFile(t, a, "a = 1\n")

	e := newTestEngine(t, root)
	_, err := e.Sync([]string{root}, true, true)
	require.NoError(t, err)

	writeFile(t, a, "a = 2\n")
	changes, err := e.Detector().DetectChanges([]string{a}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, changes.Modified)
	assert.Empty(t, changes.New)
	assert.Empty(t, changes.Deleted)

	// Detection samples state without healing it: the same edit keeps
	// showing as modified until a sync rewrites the mirror.
	again, err := e.Detector().DetectChanges([]string{a}, false)
	require.NoError(t, err)
	assert.Equal(t, changes, again)

	_, err = e.Sync([]string{a}, false, false)
	require.NoError(t, err)
	after, err := e.Detector().DetectChanges([]string{a}, false)
	require.NoError(t, err)
	assert.True(t, after.Empty())
}

func TestDetectChanges_ThreeWaySplit(t *testing.T) {
	root := t.TempDir()
	kept := filepath.Join(root, "kept.py")
	edited := filepath.Join(root, "edited.py")
	gone := filepath.Join(root, "gone.py")
	writeFile(t, kept, "k = 1\n")
	writeFile(t, edited, "e = 1\n")
	writeFile(t, gone, "g = 1\n")

	e := newTestEngine(t, root)
	_, err := e.Sync([]string{root}, true, true)
	require.NoError(t, err)

	fresh := filepath.Join(root, "fresh.py")
	writeFile(t, fresh, "f = 1\n")
	writeFile(t, edited, "e = 2\n")
	require.NoError(t, os.Remove(gone))

	changes, err := e.Detector().DetectChanges([]string{root}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{edited}, changes.Modified)
	assert.Equal(t, []string{fresh}, changes.New)
	assert.Equal(t, []string{gone}, changes.Deleted)
}

func TestDetectChanges_RecursiveScope(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "sub", "a.py")
	writeFile(t, nested, "a = 1\n")

	e := newTestEngine(t, root)
	_, err := e.Sync([]string{root}, true, true)
	require.NoError(t, err)

	require.NoError(t, os.Remove(nested))

	// Non-recursive detection over the root only sees its immediate files.
	flat, err := e.Detector().DetectChanges([]string{root}, false)
	require.NoError(t, err)
	assert.Empty(t, flat.Deleted)

	deep, err := e.Detector().DetectChanges([]string{root}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{nested}, deep.Deleted)
}
