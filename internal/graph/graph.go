package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrIntegrity marks contract violations against the graph: duplicate node
// ids, relationships referencing missing endpoints, queries against
// nonexistent nodes, or unreachable shortest-path targets. Integrity errors
// are programming errors and are never retried.
var ErrIntegrity = errors.New("graph integrity violation")

// Graph is a directed graph of nodes and relationships backed by plain
// adjacency maps: id -> outgoing edges, id -> incoming edges, and a
// kind -> id index. It is not safe for concurrent use; a single scanner or
// sync engine owns it per process run.
type Graph struct {
	nodes    map[string]Node
	outgoing map[string][]*Relationship
	incoming map[string][]*Relationship
	byKind   map[NodeKind]map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	g := &Graph{}
	g.Clear()
	return g
}

// Clear removes every node and relationship.
func (g *Graph) Clear() {
	g.nodes = make(map[string]Node)
	g.outgoing = make(map[string][]*Relationship)
	g.incoming = make(map[string][]*Relationship)
	g.byKind = make(map[NodeKind]map[string]struct{}, len(NodeKinds))
	for _, kind := range NodeKinds {
		g.byKind[kind] = make(map[string]struct{})
	}
}

// AddNode adds a node. The id must not already be present.
func (g *Graph) AddNode(n Node) error {
	id := n.NodeID()
	if _, ok := g.nodes[id]; ok {
		return fmt.Errorf("%w: node %q already exists", ErrIntegrity, id)
	}
	g.nodes[id] = n
	g.byKind[n.NodeKind()][id] = struct{}{}
	return nil
}

// AddRelationship adds a directed edge. Both endpoints must already exist.
func (g *Graph) AddRelationship(r *Relationship) error {
	if _, ok := g.nodes[r.SourceID]; !ok {
		return fmt.Errorf("%w: source node %q does not exist", ErrIntegrity, r.SourceID)
	}
	if _, ok := g.nodes[r.TargetID]; !ok {
		return fmt.Errorf("%w: target node %q does not exist", ErrIntegrity, r.TargetID)
	}
	g.outgoing[r.SourceID] = append(g.outgoing[r.SourceID], r)
	g.incoming[r.TargetID] = append(g.incoming[r.TargetID], r)
	return nil
}

// GetNode returns a projected copy of the node with the given id. The second
// return value is false if the id is absent; a pure lookup miss is not an
// error.
func (g *Graph) GetNode(id string, level DetailLevel) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return n.Project(level), true
}

// GetNodesByKind returns projected copies of every node of the given kind.
func (g *Graph) GetNodesByKind(kind NodeKind, level DetailLevel) []Node {
	ids := g.byKind[kind]
	out := make([]Node, 0, len(ids))
	for id := range ids {
		out = append(out, g.nodes[id].Project(level))
	}
	return out
}

// Outgoing returns projected copies of all edges leaving the node. Unlike
// GetNode, querying a nonexistent node is an integrity error: it
// distinguishes "no edges" from "invalid query".
func (g *Graph) Outgoing(id string, level DetailLevel) ([]*Relationship, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: node %q does not exist", ErrIntegrity, id)
	}
	return projectEdges(g.outgoing[id], level), nil
}

// Incoming returns projected copies of all edges entering the node.
func (g *Graph) Incoming(id string, level DetailLevel) ([]*Relationship, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: node %q does not exist", ErrIntegrity, id)
	}
	return projectEdges(g.incoming[id], level), nil
}

func projectEdges(edges []*Relationship, level DetailLevel) []*Relationship {
	out := make([]*Relationship, len(edges))
	for i, r := range edges {
		out[i] = r.Project(level)
	}
	return out
}

// GetRelationship returns a projected copy of the first edge from sourceID
// to targetID, or false if none exists.
func (g *Graph) GetRelationship(sourceID, targetID string, level DetailLevel) (*Relationship, bool) {
	for _, r := range g.outgoing[sourceID] {
		if r.TargetID == targetID {
			return r.Project(level), true
		}
	}
	return nil, false
}

// GetRelationshipsByKind returns projected copies of every edge of the given
// kind.
func (g *Graph) GetRelationshipsByKind(kind RelationshipKind, level DetailLevel) []*Relationship {
	var out []*Relationship
	for _, edges := range g.outgoing {
		for _, r := range edges {
			if r.Type == kind {
				out = append(out, r.Project(level))
			}
		}
	}
	return out
}

// RemoveNode removes a node. The graph does not cascade: callers must remove
// dependent relationships first, and removal is refused while any remain so
// dangling edges cannot be introduced silently.
func (g *Graph) RemoveNode(id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %q does not exist", ErrIntegrity, id)
	}
	if len(g.outgoing[id]) > 0 || len(g.incoming[id]) > 0 {
		return fmt.Errorf("%w: node %q still has relationships; remove them first", ErrIntegrity, id)
	}
	delete(g.nodes, id)
	delete(g.outgoing, id)
	delete(g.incoming, id)
	delete(g.byKind[n.NodeKind()], id)
	return nil
}

// RemoveRelationship removes every edge from sourceID to targetID.
func (g *Graph) RemoveRelationship(sourceID, targetID string) error {
	removed := false
	g.outgoing[sourceID] = deleteEdges(g.outgoing[sourceID], sourceID, targetID, &removed)
	dummy := false
	g.incoming[targetID] = deleteEdges(g.incoming[targetID], sourceID, targetID, &dummy)
	if !removed {
		return fmt.Errorf("%w: no relationship from %q to %q", ErrIntegrity, sourceID, targetID)
	}
	if len(g.outgoing[sourceID]) == 0 {
		delete(g.outgoing, sourceID)
	}
	if len(g.incoming[targetID]) == 0 {
		delete(g.incoming, targetID)
	}
	return nil
}

func deleteEdges(edges []*Relationship, sourceID, targetID string, removed *bool) []*Relationship {
	out := edges[:0]
	for _, r := range edges {
		if r.SourceID == sourceID && r.TargetID == targetID {
			*removed = true
			continue
		}
		out = append(out, r)
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// NodeIDs returns every node id in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RelationshipCount returns the number of edges.
func (g *Graph) RelationshipCount() int {
	n := 0
	for _, edges := range g.outgoing {
		n += len(edges)
	}
	return n
}

// NodeKindCounts returns the number of nodes per kind.
func (g *Graph) NodeKindCounts() map[NodeKind]int {
	out := make(map[NodeKind]int, len(NodeKinds))
	for kind, ids := range g.byKind {
		out[kind] = len(ids)
	}
	return out
}

// RelationshipKindCounts returns the number of edges per kind.
func (g *Graph) RelationshipKindCounts() map[RelationshipKind]int {
	out := make(map[RelationshipKind]int, len(RelationshipKinds))
	for _, kind := range RelationshipKinds {
		out[kind] = 0
	}
	for _, edges := range g.outgoing {
		for _, r := range edges {
			out[r.Type]++
		}
	}
	return out
}

// Subgraph returns a new graph containing projected copies of the given
// nodes and every edge whose endpoints are both in the set. Every id must
// exist.
func (g *Graph) Subgraph(ids []string, level DetailLevel) (*Graph, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := g.nodes[id]; !ok {
			return nil, fmt.Errorf("%w: node %q does not exist", ErrIntegrity, id)
		}
		want[id] = struct{}{}
	}

	sub := New()
	for id := range want {
		if err := sub.AddNode(g.nodes[id].Project(level)); err != nil {
			return nil, err
		}
	}
	for id := range want {
		for _, r := range g.outgoing[id] {
			if _, ok := want[r.TargetID]; !ok {
				continue
			}
			if err := sub.AddRelationship(r.Project(level)); err != nil {
				return nil, err
			}
		}
	}
	return sub, nil
}

// ShortestPath returns the nodes along a shortest directed path from
// sourceID to targetID, found by BFS over the unweighted graph. Missing
// endpoints and unreachable targets are integrity errors.
func (g *Graph) ShortestPath(sourceID, targetID string) ([]Node, error) {
	if _, ok := g.nodes[sourceID]; !ok {
		return nil, fmt.Errorf("%w: source node %q does not exist", ErrIntegrity, sourceID)
	}
	if _, ok := g.nodes[targetID]; !ok {
		return nil, fmt.Errorf("%w: target node %q does not exist", ErrIntegrity, targetID)
	}

	parent := map[string]string{sourceID: sourceID}
	queue := []string{sourceID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == targetID {
			break
		}
		for _, r := range g.outgoing[id] {
			if _, seen := parent[r.TargetID]; seen {
				continue
			}
			parent[r.TargetID] = id
			queue = append(queue, r.TargetID)
		}
	}

	if _, found := parent[targetID]; !found {
		return nil, fmt.Errorf("%w: no path from %q to %q", ErrIntegrity, sourceID, targetID)
	}

	var rev []string
	for id := targetID; ; id = parent[id] {
		rev = append(rev, id)
		if id == sourceID {
			break
		}
	}
	path := make([]Node, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = g.nodes[id].Project(DetailDetailed)
	}
	return path, nil
}
