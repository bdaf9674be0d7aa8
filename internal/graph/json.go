package graph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// graphJSON is the wire shape of a serialized graph.
type graphJSON struct {
	Nodes         []json.RawMessage `json:"nodes"`
	Relationships []json.RawMessage `json:"relationships"`
	DetailLevel   DetailLevel       `json:"detail_level"`
}

// MarshalDetail serializes the graph with every node and relationship
// projected to the given level. Output is deterministic: nodes sorted by id,
// relationships by (source, target, type).
func (g *Graph) MarshalDetail(level DetailLevel) ([]byte, error) {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := graphJSON{
		Nodes:         make([]json.RawMessage, 0, len(ids)),
		Relationships: []json.RawMessage{},
		DetailLevel:   level,
	}
	for _, id := range ids {
		raw, err := json.Marshal(g.nodes[id].Project(level))
		if err != nil {
			return nil, fmt.Errorf("marshal node %s: %w", id, err)
		}
		out.Nodes = append(out.Nodes, raw)
	}

	var edges []*Relationship
	for _, list := range g.outgoing {
		edges = append(edges, list...)
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Type < b.Type
	})
	for _, r := range edges {
		raw, err := json.Marshal(r.Project(level))
		if err != nil {
			return nil, fmt.Errorf("marshal relationship %s->%s: %w", r.SourceID, r.TargetID, err)
		}
		out.Relationships = append(out.Relationships, raw)
	}

	return json.Marshal(out)
}

// UnmarshalGraph reconstructs a graph from MarshalDetail output, dispatching
// on each record's kind discriminant.
func UnmarshalGraph(data []byte) (*Graph, error) {
	var wire graphJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}

	g := New()
	for _, raw := range wire.Nodes {
		n, err := DecodeNode(raw)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, raw := range wire.Relationships {
		r, err := DecodeRelationship(raw)
		if err != nil {
			return nil, err
		}
		if err := g.AddRelationship(r); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// DecodeNode constructs the concrete node variant named by the record's
// "type" field.
func DecodeNode(raw json.RawMessage) (Node, error) {
	var probe struct {
		ID   string   `json:"id"`
		Type NodeKind `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}

	var n Node
	switch probe.Type {
	case KindFile:
		n = &FileNode{}
	case KindDirectory:
		n = &DirectoryNode{}
	case KindFunction:
		n = &FunctionNode{}
	case KindClass:
		n = &ClassNode{}
	case KindMethod:
		n = &MethodNode{}
	case KindFeature:
		n = &FeatureNode{}
	default:
		return nil, fmt.Errorf("decode node %s: unknown kind %q", probe.ID, probe.Type)
	}
	if err := json.Unmarshal(raw, n); err != nil {
		return nil, fmt.Errorf("decode %s node %s: %w", probe.Type, probe.ID, err)
	}
	return n, nil
}

// DecodeRelationship constructs a relationship, rejecting unknown kinds.
func DecodeRelationship(raw json.RawMessage) (*Relationship, error) {
	var r Relationship
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode relationship: %w", err)
	}
	switch r.Type {
	case RelContains, RelCalls, RelImports, RelInherits, RelImplements:
		return &r, nil
	}
	return nil, fmt.Errorf("decode relationship %s->%s: unknown kind %q", r.SourceID, r.TargetID, r.Type)
}
