package scanner

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

func newTestScanner(t *testing.T, root string, extract ExtractFunc) *Scanner {
	t.Helper()
	m, err := mirror.New(root, filepath.Join(t.TempDir(), "mirrors"))
	require.NoError(t, err)
	s, err := New(root, graph.New(), m, nil, extract)
	require.NoError(t, err)
	return s
}

func TestScan_EmptyDirectory(t *testing.T) {
	root := t.TempDir()
	s := newTestScanner(t, root, nil)

	g, _, err := s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)
	assert.Equal(t, 1, g.NodeCount(), "just the root directory node")
	assert.Equal(t, 0, g.RelationshipCount())

	_, ok := g.GetNode(graph.DirID(s.Root()), graph.DetailMinimal)
	assert.True(t, ok)
}

func TestScan_DepthLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(root, "b.py"), "y = 2\n")
	writeFile(t, filepath.Join(root, "sub", "c.py"), "z = 3\n")

	s := newTestScanner(t, root, nil)
	g, _, err := s.Scan(1, graph.DetailStandard)
	require.NoError(t, err)

	kinds := g.NodeKindCounts()
	assert.Equal(t, 2, kinds[graph.KindDirectory], "root plus sub, but sub is not descended into")
	assert.Equal(t, 2, kinds[graph.KindFile])
	_, ok := g.GetNode(graph.FileID(filepath.Join(root, "sub", "c.py")), graph.DetailMinimal)
	assert.False(t, ok, "depth 2 entries excluded at max depth 1")

	// Unlimited depth picks up the nested file too.
	g, _, err = s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)
	_, ok = g.GetNode(graph.FileID(filepath.Join(root, "sub", "c.py")), graph.DetailMinimal)
	assert.True(t, ok)
	assert.Equal(t, 3, g.NodeKindCounts()[graph.KindFile])
}

func TestScan_PopulatesMirror(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "x = 1\n")

	s := newTestScanner(t, root, nil)
	g, m, err := s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)

	file := filepath.Join(s.Root(), "a.py")
	assert.True(t, m.Exists(file))
	assert.True(t, m.Exists(s.Root()))
	assert.True(t, m.IsUpToDate(file))

	rel, ok := g.GetRelationship(graph.DirID(s.Root()), graph.FileID(file), graph.DetailMinimal)
	require.True(t, ok)
	assert.Equal(t, graph.RelContains, rel.Type)
}

func TestScan_RescanIsIdempotentReplace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(root, "sub", "b.py"), "y = 2\n")

	s := newTestScanner(t, root, nil)
	g, _, err := s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)
	nodes, rels := g.NodeCount(), g.RelationshipCount()

	_, _, err = s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)
	assert.Equal(t, nodes, g.NodeCount(), "rescan replaces, never accumulates")
	assert.Equal(t, rels, g.RelationshipCount())
}

func TestScanPath_ReattachesToScannedParent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "b.py"), "y = 2\n")

	s := newTestScanner(t, root, nil)
	g, _, err := s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)

	sub := filepath.Join(s.Root(), "sub")
	require.NoError(t, s.ScanPath(sub, 0, graph.DetailStandard))

	_, ok := g.GetRelationship(graph.DirID(s.Root()), graph.DirID(sub), graph.DetailMinimal)
	assert.True(t, ok, "subtree rescan restores the containment edge from its parent")
}

func TestScan_ExtractionHook(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "def f(): pass\n")

	extract := func(path string) (map[string]mirror.CodeElement, []string, error) {
		return map[string]mirror.CodeElement{
			"f": {Name: "f", Kind: "function", LineStart: 1, LineEnd: 1},
		}, []string{"os"}, nil
	}
	s := newTestScanner(t, root, extract)
	g, m, err := s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)

	file := filepath.Join(s.Root(), "a.py")
	fnID := graph.FunctionID(file, "f")
	_, ok := g.GetNode(fnID, graph.DetailMinimal)
	assert.True(t, ok)
	_, ok = g.GetRelationship(graph.FileID(file), fnID, graph.DetailMinimal)
	assert.True(t, ok)

	content, ok := m.Content(file, graph.DetailDetailed)
	require.True(t, ok)
	fc := content.(*mirror.FileContent)
	assert.Contains(t, fc.Elements, "f")
	assert.Equal(t, []string{"os"}, fc.Imports)
}

func TestScan_DefaultIgnores(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref\n")
	writeFile(t, filepath.Join(root, "__pycache__", "a.pyc"), "\x00")

	s := newTestScanner(t, root, nil)
	g, _, err := s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)

	assert.Equal(t, 1, g.NodeKindCounts()[graph.KindDirectory])
	assert.Equal(t, 1, g.NodeKindCounts()[graph.KindFile])
}

func TestScan_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\nbuild/\n")
	writeFile(t, filepath.Join(root, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(root, "debug.log"), "noise\n")
	writeFile(t, filepath.Join(root, "build", "out.bin"), "\x00")

	s := newTestScanner(t, root, nil)
	g, _, err := s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)

	_, ok := g.GetNode(graph.FileID(filepath.Join(s.Root(), "debug.log")), graph.DetailMinimal)
	assert.False(t, ok)
	_, ok = g.GetNode(graph.DirID(filepath.Join(s.Root(), "build")), graph.DetailMinimal)
	assert.False(t, ok)
	_, ok = g.GetNode(graph.FileID(filepath.Join(s.Root(), "a.py")), graph.DetailMinimal)
	assert.True(t, ok)
}

func TestIgnorePolicy_MatchesRelativeToRoot(t *testing.T) {
	// A pattern that coincides with a directory segment above the scan root
	// must not exclude the tree: matching is root-relative, as in git.
	root := filepath.Join(t.TempDir(), "build", "project")
	writeFile(t, filepath.Join(root, ".gitignore"), "build\n")
	writeFile(t, filepath.Join(root, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(root, "build", "out.bin"), "\x00")

	s := newTestScanner(t, root, nil)
	g, _, err := s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)

	_, ok := g.GetNode(graph.FileID(filepath.Join(s.Root(), "a.py")), graph.DetailMinimal)
	assert.True(t, ok, "segments above the root never match")
	_, ok = g.GetNode(graph.DirID(filepath.Join(s.Root(), "build")), graph.DetailMinimal)
	assert.False(t, ok, "the pattern still applies inside the root")
}

func TestIgnorePolicy_RootAnchoredPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "/dist\n")
	writeFile(t, filepath.Join(root, "dist", "bundle.js"), "x\n")
	writeFile(t, filepath.Join(root, "sub", "dist", "keep.js"), "y\n")

	s := newTestScanner(t, root, nil)
	g, _, err := s.Scan(0, graph.DetailStandard)
	require.NoError(t, err)

	_, ok := g.GetNode(graph.DirID(filepath.Join(s.Root(), "dist")), graph.DetailMinimal)
	assert.False(t, ok, "anchored pattern matches at the root")
	_, ok = g.GetNode(graph.FileID(filepath.Join(s.Root(), "sub", "dist", "keep.js")), graph.DetailMinimal)
	assert.True(t, ok, "anchored pattern does not match deeper paths")
}

func TestIgnorePolicy_PatternTiers(t *testing.T) {
	p := NewIgnorePolicyFromPatterns([]string{"*.log", "build/", "!important.log"})

	assert.True(t, p.ShouldIgnore("x.log", false))
	assert.False(t, p.ShouldIgnore("important.log", false), "negation un-excludes")
	assert.True(t, p.ShouldIgnore("build", true), "directory-only pattern matches directories")
	assert.False(t, p.ShouldIgnore("build", false), "directory-only pattern spares plain files")
}

func TestIgnorePolicy_LegacyAndExtras(t *testing.T) {
	p := NewIgnorePolicy(t.TempDir(), nil, []string{"generated"})

	assert.True(t, p.ShouldIgnore("/repo/.git", true))
	assert.True(t, p.ShouldIgnore("/repo/sub/__pycache__", true))
	assert.True(t, p.ShouldIgnore("/repo/api_generated.go", false), "extras match as basename substrings")
	assert.False(t, p.ShouldIgnore("/repo/main.go", false))

	p.AddExtras("vendor")
	assert.True(t, p.ShouldIgnore("/repo/vendor", true))
}

func TestPruneSubtree(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(graph.NewDirectoryNode(graph.DirID("/src"), "/src", nil)))
	require.NoError(t, g.AddNode(graph.NewDirectoryNode(graph.DirID("/src/sub"), "/src/sub", nil)))
	require.NoError(t, g.AddNode(graph.NewFileNode(graph.FileID("/src/sub/a.py"), "/src/sub/a.py", ".py", nil)))
	require.NoError(t, g.AddNode(graph.NewFunctionNode(graph.FunctionID("/src/sub/a.py", "f"), "f", nil, nil, 1, 2, nil)))
	require.NoError(t, g.AddNode(graph.NewFeatureNode(graph.FeatureID("auth"), "auth", "", nil)))
	require.NoError(t, g.AddRelationship(graph.NewContains(graph.DirID("/src"), graph.DirID("/src/sub"), nil)))
	require.NoError(t, g.AddRelationship(graph.NewContains(graph.DirID("/src/sub"), graph.FileID("/src/sub/a.py"), nil)))
	require.NoError(t, g.AddRelationship(graph.NewContains(graph.FileID("/src/sub/a.py"), graph.FunctionID("/src/sub/a.py", "f"), nil)))

	removed := PruneSubtree(g, "/src/sub")
	assert.Equal(t, 3, removed)
	assert.Equal(t, 2, g.NodeCount(), "parent directory and feature survive")
	assert.Equal(t, 0, g.RelationshipCount())

	// Pruning a single file path removes the file and its elements only.
	require.NoError(t, g.AddNode(graph.NewFileNode(graph.FileID("/src/b.py"), "/src/b.py", ".py", nil)))
	require.NoError(t, g.AddNode(graph.NewFunctionNode(graph.FunctionID("/src/b.py", "g"), "g", nil, nil, 1, 2, nil)))
	require.NoError(t, g.AddRelationship(graph.NewContains(graph.FileID("/src/b.py"), graph.FunctionID("/src/b.py", "g"), nil)))
	assert.Equal(t, 2, PruneSubtree(g, "/src/b.py"))
	_, ok := g.GetNode(graph.DirID("/src"), graph.DetailMinimal)
	assert.True(t, ok)
}
