package mcptools

import "github.com/dusk-indust/archmirror/internal/graph"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ScanTreeInput is the input for the scan_tree MCP tool.
type ScanTreeInput struct {
	MaxDepth    int    `json:"maxDepth,omitempty" jsonschema:"maximum scan depth from the root, 0 for unlimited"`
	DetailLevel string `json:"detailLevel,omitempty" jsonschema:"detail level to stamp on mirror records: minimal, standard, detailed (default: standard)"`
}

// ScanTreeOutput is the result of the scan_tree MCP tool.
type ScanTreeOutput struct {
	Root              string         `json:"root"`
	Nodes             int            `json:"nodes"`
	Relationships     int            `json:"relationships"`
	NodeKinds         map[string]int `json:"nodeKinds"`
	RelationshipKinds map[string]int `json:"relationshipKinds"`
}

// SyncPathsInput is the input for the sync_paths MCP tool.
type SyncPathsInput struct {
	Paths     []string `json:"paths" jsonschema:"files or directories to bring in sync with the filesystem"`
	Recursive bool     `json:"recursive,omitempty" jsonschema:"descend into directories instead of taking only their immediate files"`
	Force     bool     `json:"force,omitempty" jsonschema:"skip change detection and rebuild every path unconditionally"`
}

// SyncPathsOutput is the result of the sync_paths MCP tool.
type SyncPathsOutput struct {
	Updated int `json:"updated"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// GetNodeInput is the input for the get_node MCP tool.
type GetNodeInput struct {
	NodeID      string `json:"nodeId" jsonschema:"node id, e.g. file:/abs/path or func:/abs/path:name"`
	DetailLevel string `json:"detailLevel,omitempty" jsonschema:"projection level: minimal, standard, detailed (default: standard)"`
}

// GetNodeOutput is the result of the get_node MCP tool.
type GetNodeOutput struct {
	Found bool           `json:"found"`
	Node  map[string]any `json:"node,omitempty"`
}

// QueryNodesInput is the input for the query_nodes MCP tool.
type QueryNodesInput struct {
	Kind        string `json:"kind" jsonschema:"node kind to list: file, directory, function, class, method, feature"`
	DetailLevel string `json:"detailLevel,omitempty" jsonschema:"projection level: minimal, standard, detailed (default: standard)"`
}

// QueryNodesOutput is the result of the query_nodes MCP tool.
type QueryNodesOutput struct {
	Nodes []map[string]any `json:"nodes"`
	Total int              `json:"total"`
}

// GetRelationshipsInput is the input for the get_relationships MCP tool.
type GetRelationshipsInput struct {
	NodeID      string `json:"nodeId" jsonschema:"node id whose edges to list"`
	Direction   string `json:"direction,omitempty" jsonschema:"outgoing, incoming, or both (default: both)"`
	DetailLevel string `json:"detailLevel,omitempty" jsonschema:"projection level: minimal, standard, detailed (default: standard)"`
}

// GetRelationshipsOutput is the result of the get_relationships MCP tool.
type GetRelationshipsOutput struct {
	Outgoing []*graph.Relationship `json:"outgoing,omitempty"`
	Incoming []*graph.Relationship `json:"incoming,omitempty"`
}

// GetMirroredContentInput is the input for the get_mirrored_content MCP tool.
type GetMirroredContentInput struct {
	Path        string `json:"path" jsonschema:"source file or directory path whose mirror record to read"`
	DetailLevel string `json:"detailLevel,omitempty" jsonschema:"projection level: minimal, standard, detailed (default: standard)"`
}

// GetMirroredContentOutput is the result of the get_mirrored_content MCP tool.
type GetMirroredContentOutput struct {
	Found   bool           `json:"found"`
	Content map[string]any `json:"content,omitempty"`
}

// ListMirrorsInput is the input for the list_mirrors MCP tool.
type ListMirrorsInput struct{}

// ListMirrorsOutput is the result of the list_mirrors MCP tool.
type ListMirrorsOutput struct {
	Paths []string `json:"paths"`
	Total int      `json:"total"`
}
