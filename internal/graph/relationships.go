package graph

// RelationshipKind classifies directed edges between nodes.
type RelationshipKind string

const (
	RelContains   RelationshipKind = "contains"
	RelCalls      RelationshipKind = "calls"
	RelImports    RelationshipKind = "imports"
	RelInherits   RelationshipKind = "inherits"
	RelImplements RelationshipKind = "implements"
)

// RelationshipKinds lists every relationship kind, in declaration order.
var RelationshipKinds = []RelationshipKind{
	RelContains, RelCalls, RelImports, RelInherits, RelImplements,
}

// Relationship is a directed edge between two nodes. LineNumber is only
// meaningful for calls relationships (0 means unknown). The kind set is
// closed; construct relationships through the New* constructors.
type Relationship struct {
	SourceID   string           `json:"source_id"`
	TargetID   string           `json:"target_id"`
	Type       RelationshipKind `json:"type"`
	LineNumber int              `json:"line_number,omitempty"`
	Meta       map[string]any   `json:"metadata,omitempty"`
}

// NewContains creates a containment edge (directory contains file, file
// contains function, class contains method).
func NewContains(sourceID, targetID string, meta map[string]any) *Relationship {
	return &Relationship{SourceID: sourceID, TargetID: targetID, Type: RelContains, Meta: cloneMetadata(meta)}
}

// NewCalls creates a call edge with an optional call-site line number.
func NewCalls(sourceID, targetID string, lineNumber int, meta map[string]any) *Relationship {
	return &Relationship{SourceID: sourceID, TargetID: targetID, Type: RelCalls, LineNumber: lineNumber, Meta: cloneMetadata(meta)}
}

// NewImports creates a file import edge.
func NewImports(sourceID, targetID string, meta map[string]any) *Relationship {
	return &Relationship{SourceID: sourceID, TargetID: targetID, Type: RelImports, Meta: cloneMetadata(meta)}
}

// NewInherits creates a class inheritance edge.
func NewInherits(sourceID, targetID string, meta map[string]any) *Relationship {
	return &Relationship{SourceID: sourceID, TargetID: targetID, Type: RelInherits, Meta: cloneMetadata(meta)}
}

// NewImplements creates an edge from a function or method to a feature.
func NewImplements(sourceID, targetID string, meta map[string]any) *Relationship {
	return &Relationship{SourceID: sourceID, TargetID: targetID, Type: RelImplements, Meta: cloneMetadata(meta)}
}

// Project returns a copy reduced to the given detail level. MINIMAL strips
// metadata and the call-site line number; STANDARD filters metadata to the
// relationship allow-list.
func (r *Relationship) Project(level DetailLevel) *Relationship {
	out := &Relationship{SourceID: r.SourceID, TargetID: r.TargetID, Type: r.Type}
	switch level {
	case DetailMinimal:
		out.Meta = map[string]any{}
	case DetailStandard:
		out.LineNumber = r.LineNumber
		out.Meta = filterMetadata(r.Meta, relationshipMetadataAllowList)
	default:
		out.LineNumber = r.LineNumber
		out.Meta = cloneMetadata(r.Meta)
	}
	return out
}
