package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestGraph wires a small tree: /src contains a.py and b.py, a.py
// contains function f which calls function g in b.py.
func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()

	require.NoError(t, g.AddNode(NewDirectoryNode(DirID("/src"), "/src", nil)))
	require.NoError(t, g.AddNode(NewFileNode(FileID("/src/a.py"), "/src/a.py", ".py", nil)))
	require.NoError(t, g.AddNode(NewFileNode(FileID("/src/b.py"), "/src/b.py", ".py", nil)))
	require.NoError(t, g.AddNode(NewFunctionNode(FunctionID("/src/a.py", "f"), "f", nil, nil, 1, 5, nil)))
	require.NoError(t, g.AddNode(NewFunctionNode(FunctionID("/src/b.py", "g"), "g", nil, nil, 1, 9, nil)))

	require.NoError(t, g.AddRelationship(NewContains(DirID("/src"), FileID("/src/a.py"), nil)))
	require.NoError(t, g.AddRelationship(NewContains(DirID("/src"), FileID("/src/b.py"), nil)))
	require.NoError(t, g.AddRelationship(NewContains(FileID("/src/a.py"), FunctionID("/src/a.py", "f"), nil)))
	require.NoError(t, g.AddRelationship(NewContains(FileID("/src/b.py"), FunctionID("/src/b.py", "g"), nil)))
	require.NoError(t, g.AddRelationship(NewCalls(FunctionID("/src/a.py", "f"), FunctionID("/src/b.py", "g"), 3, nil)))
	return g
}

func TestAddNode_DuplicateID(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(NewFileNode(FileID("/a"), "/a", "", nil)))

	err := g.AddNode(NewFileNode(FileID("/a"), "/a", "", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestAddNode_ThenGetNodeEquivalent(t *testing.T) {
	g := New()
	fn := NewFunctionNode(FunctionID("/a.py", "f"), "f",
		[]ParameterInfo{{Name: "x", Type: &TypeInfo{Name: "int"}}},
		&TypeInfo{Name: "bool"}, 3, 8, map[string]any{"doc": "d"})
	require.NoError(t, g.AddNode(fn))

	got, ok := g.GetNode(fn.ID, DetailDetailed)
	require.True(t, ok)
	assert.Equal(t, fn, got)
}

func TestGetNode_AbsentIsNotAnError(t *testing.T) {
	g := New()
	n, ok := g.GetNode("file:/missing", DetailStandard)
	assert.False(t, ok)
	assert.Nil(t, n)
}

func TestAddRelationship_MissingEndpoints(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(NewFileNode(FileID("/a"), "/a", "", nil)))

	err := g.AddRelationship(NewContains(FileID("/a"), FileID("/missing"), nil))
	assert.ErrorIs(t, err, ErrIntegrity)

	err = g.AddRelationship(NewContains(FileID("/missing"), FileID("/a"), nil))
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestRelationship_RetrievableBothDirections(t *testing.T) {
	g := buildTestGraph(t)

	out, err := g.Outgoing(FunctionID("/src/a.py", "f"), DetailDetailed)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, RelCalls, out[0].Type)
	assert.Equal(t, 3, out[0].LineNumber)

	in, err := g.Incoming(FunctionID("/src/b.py", "g"), DetailDetailed)
	require.NoError(t, err)
	require.Len(t, in, 2) // contains from b.py, calls from f
}

func TestRelationshipQueries_NonexistentNode(t *testing.T) {
	g := New()
	_, err := g.Outgoing("file:/nope", DetailMinimal)
	assert.ErrorIs(t, err, ErrIntegrity)
	_, err = g.Incoming("file:/nope", DetailMinimal)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestGetNodesByKind(t *testing.T) {
	g := buildTestGraph(t)
	files := g.GetNodesByKind(KindFile, DetailMinimal)
	assert.Len(t, files, 2)
	assert.Len(t, g.GetNodesByKind(KindDirectory, DetailMinimal), 1)
	assert.Empty(t, g.GetNodesByKind(KindFeature, DetailMinimal))
}

func TestRemoveNode_RefusesWhileEdgesRemain(t *testing.T) {
	g := buildTestGraph(t)
	id := FileID("/src/a.py")

	err := g.RemoveNode(id)
	assert.ErrorIs(t, err, ErrIntegrity, "node still has relationships")

	// Caller removes dependent relationships first, then the node.
	require.NoError(t, g.RemoveRelationship(DirID("/src"), id))
	require.NoError(t, g.RemoveRelationship(id, FunctionID("/src/a.py", "f")))
	require.NoError(t, g.RemoveNode(id))

	_, ok := g.GetNode(id, DetailMinimal)
	assert.False(t, ok)
}

func TestRemoveRelationship_Missing(t *testing.T) {
	g := buildTestGraph(t)
	err := g.RemoveRelationship(FileID("/src/a.py"), FileID("/src/b.py"))
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestCounts(t *testing.T) {
	g := buildTestGraph(t)
	assert.Equal(t, 5, g.NodeCount())
	assert.Equal(t, 5, g.RelationshipCount())

	kinds := g.NodeKindCounts()
	assert.Equal(t, 2, kinds[KindFile])
	assert.Equal(t, 1, kinds[KindDirectory])
	assert.Equal(t, 2, kinds[KindFunction])

	rels := g.RelationshipKindCounts()
	assert.Equal(t, 4, rels[RelContains])
	assert.Equal(t, 1, rels[RelCalls])
	assert.Equal(t, 0, rels[RelImports])
}

func TestSubgraph(t *testing.T) {
	g := buildTestGraph(t)

	sub, err := g.Subgraph([]string{
		FunctionID("/src/a.py", "f"),
		FunctionID("/src/b.py", "g"),
	}, DetailDetailed)
	require.NoError(t, err)

	assert.Equal(t, 2, sub.NodeCount())
	assert.Equal(t, 1, sub.RelationshipCount(), "only the calls edge joins the two functions")

	_, err = g.Subgraph([]string{"file:/nope"}, DetailMinimal)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestShortestPath(t *testing.T) {
	g := buildTestGraph(t)

	path, err := g.ShortestPath(DirID("/src"), FunctionID("/src/b.py", "g"))
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, DirID("/src"), path[0].NodeID())
	assert.Equal(t, FileID("/src/b.py"), path[1].NodeID())
	assert.Equal(t, FunctionID("/src/b.py", "g"), path[2].NodeID())
}

func TestShortestPath_NoPath(t *testing.T) {
	g := buildTestGraph(t)

	// Edges are directed: nothing leads from a leaf function back to the root.
	_, err := g.ShortestPath(FunctionID("/src/b.py", "g"), DirID("/src"))
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestClear(t *testing.T) {
	g := buildTestGraph(t)
	g.Clear()
	assert.Zero(t, g.NodeCount())
	assert.Zero(t, g.RelationshipCount())
	require.NoError(t, g.AddNode(NewFileNode(FileID("/a"), "/a", "", nil)))
}

func TestProjectionDoesNotLeakStoredState(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(NewFileNode(FileID("/a"), "/a", ".py", map[string]any{"source_file": "/a"})))

	got, ok := g.GetNode(FileID("/a"), DetailDetailed)
	require.True(t, ok)
	got.Metadata()["source_file"] = "mutated"

	again, _ := g.GetNode(FileID("/a"), DetailDetailed)
	assert.Equal(t, "/a", again.Metadata()["source_file"])
}
