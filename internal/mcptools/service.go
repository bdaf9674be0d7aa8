package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/archmirror/internal/graph"
	archsync "github.com/dusk-indust/archmirror/internal/sync"
)

// Service holds the sync engine driving one tree's graph and mirror, and
// implements the MCP tool handlers. The underlying stores are
// single-owner, so a mutex serializes tool calls.
type Service struct {
	mu     sync.Mutex
	engine *archsync.Engine
}

// NewService wraps a sync engine for MCP exposure.
func NewService(engine *archsync.Engine) *Service {
	return &Service{engine: engine}
}

// ScanTree runs a full scan of the tree and reports graph statistics.
func (s *Service) ScanTree(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ScanTreeInput,
) (*mcp.CallToolResult, ScanTreeOutput, error) {
	level, err := parseLevel(input.DetailLevel)
	if err != nil {
		return nil, ScanTreeOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.engine.Scanner()
	g, _, err := sc.Scan(input.MaxDepth, level)
	if err != nil {
		return nil, ScanTreeOutput{}, fmt.Errorf("scan %s: %w", sc.Root(), err)
	}

	out := ScanTreeOutput{
		Root:              sc.Root(),
		Nodes:             g.NodeCount(),
		Relationships:     g.RelationshipCount(),
		NodeKinds:         make(map[string]int),
		RelationshipKinds: make(map[string]int),
	}
	for kind, n := range g.NodeKindCounts() {
		out.NodeKinds[string(kind)] = n
	}
	for kind, n := range g.RelationshipKindCounts() {
		out.RelationshipKinds[string(kind)] = n
	}
	return nil, out, nil
}

// SyncPaths brings the given paths in sync with the filesystem.
func (s *Service) SyncPaths(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SyncPathsInput,
) (*mcp.CallToolResult, SyncPathsOutput, error) {
	if len(input.Paths) == 0 {
		return nil, SyncPathsOutput{}, fmt.Errorf("paths is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.engine.Sync(input.Paths, input.Recursive, input.Force)
	if err != nil {
		return nil, SyncPathsOutput{}, err
	}
	return nil, SyncPathsOutput{Updated: res.Updated, Added: res.Added, Removed: res.Removed}, nil
}

// GetNode looks up one node by id.
func (s *Service) GetNode(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetNodeInput,
) (*mcp.CallToolResult, GetNodeOutput, error) {
	if input.NodeID == "" {
		return nil, GetNodeOutput{}, fmt.Errorf("nodeId is required")
	}
	level, err := parseLevel(input.DetailLevel)
	if err != nil {
		return nil, GetNodeOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.engine.Graph().GetNode(input.NodeID, level)
	if !ok {
		return nil, GetNodeOutput{Found: false}, nil
	}
	record, err := toRecord(node)
	if err != nil {
		return nil, GetNodeOutput{}, err
	}
	return nil, GetNodeOutput{Found: true, Node: record}, nil
}

// QueryNodes lists every node of one kind.
func (s *Service) QueryNodes(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input QueryNodesInput,
) (*mcp.CallToolResult, QueryNodesOutput, error) {
	kind := graph.NodeKind(input.Kind)
	if !validNodeKind(kind) {
		return nil, QueryNodesOutput{}, fmt.Errorf("unknown node kind %q", input.Kind)
	}
	level, err := parseLevel(input.DetailLevel)
	if err != nil {
		return nil, QueryNodesOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.engine.Graph().GetNodesByKind(kind, level)
	out := QueryNodesOutput{Nodes: make([]map[string]any, 0, len(nodes)), Total: len(nodes)}
	for _, node := range nodes {
		record, err := toRecord(node)
		if err != nil {
			return nil, QueryNodesOutput{}, err
		}
		out.Nodes = append(out.Nodes, record)
	}
	return nil, out, nil
}

// GetRelationships lists a node's edges in one or both directions.
func (s *Service) GetRelationships(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetRelationshipsInput,
) (*mcp.CallToolResult, GetRelationshipsOutput, error) {
	if input.NodeID == "" {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("nodeId is required")
	}
	level, err := parseLevel(input.DetailLevel)
	if err != nil {
		return nil, GetRelationshipsOutput{}, err
	}
	direction := input.Direction
	if direction == "" {
		direction = "both"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.engine.Graph()
	var out GetRelationshipsOutput
	if direction == "outgoing" || direction == "both" {
		edges, err := g.Outgoing(input.NodeID, level)
		if err != nil {
			return nil, GetRelationshipsOutput{}, err
		}
		out.Outgoing = edges
	}
	if direction == "incoming" || direction == "both" {
		edges, err := g.Incoming(input.NodeID, level)
		if err != nil {
			return nil, GetRelationshipsOutput{}, err
		}
		out.Incoming = edges
	}
	if out.Outgoing == nil && out.Incoming == nil && direction != "both" {
		return nil, GetRelationshipsOutput{}, fmt.Errorf("unknown direction %q", input.Direction)
	}
	return nil, out, nil
}

// GetMirroredContent reads one path's mirror record.
func (s *Service) GetMirroredContent(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetMirroredContentInput,
) (*mcp.CallToolResult, GetMirroredContentOutput, error) {
	if input.Path == "" {
		return nil, GetMirroredContentOutput{}, fmt.Errorf("path is required")
	}
	level, err := parseLevel(input.DetailLevel)
	if err != nil {
		return nil, GetMirroredContentOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.engine.Mirror().Content(input.Path, level)
	if !ok {
		return nil, GetMirroredContentOutput{Found: false}, nil
	}
	record, err := toRecord(content)
	if err != nil {
		return nil, GetMirroredContentOutput{}, err
	}
	return nil, GetMirroredContentOutput{Found: true, Content: record}, nil
}

// ListMirrors reports every tracked source path.
func (s *Service) ListMirrors(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListMirrorsInput,
) (*mcp.CallToolResult, ListMirrorsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := s.engine.Mirror().ListAllMirrors()
	return nil, ListMirrorsOutput{Paths: paths, Total: len(paths)}, nil
}

// parseLevel maps a tool-call detail level to its graph value, defaulting
// to standard.
func parseLevel(raw string) (graph.DetailLevel, error) {
	if raw == "" {
		return graph.DetailStandard, nil
	}
	return graph.ParseDetailLevel(raw)
}

func validNodeKind(kind graph.NodeKind) bool {
	for _, known := range graph.NodeKinds {
		if kind == known {
			return true
		}
	}
	return false
}

// toRecord flattens a typed value to a generic JSON object for tool
// output.
func toRecord(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}
