package graph

import (
	"fmt"
	"strings"
)

// DetailLevel controls how much field and metadata information a projected
// node or relationship retains. The stored graph always keeps full fidelity;
// levels apply to read-time copies only.
type DetailLevel string

const (
	DetailMinimal  DetailLevel = "minimal"
	DetailStandard DetailLevel = "standard"
	DetailDetailed DetailLevel = "detailed"
)

// ParseDetailLevel converts a string to a DetailLevel, accepting any casing
// and surrounding whitespace.
func ParseDetailLevel(value string) (DetailLevel, error) {
	switch DetailLevel(strings.ToLower(strings.TrimSpace(value))) {
	case DetailMinimal:
		return DetailMinimal, nil
	case DetailStandard:
		return DetailStandard, nil
	case DetailDetailed:
		return DetailDetailed, nil
	}
	return "", fmt.Errorf("invalid detail level: %q (valid: minimal, standard, detailed)", value)
}

// nodeMetadataAllowList is the fixed set of metadata keys a STANDARD
// projection retains on nodes.
var nodeMetadataAllowList = map[string]bool{
	"visibility":   true,
	"deprecated":   true,
	"access_level": true,
	"source_file":  true,
}

// relationshipMetadataAllowList is the fixed set of metadata keys a STANDARD
// projection retains on relationships.
var relationshipMetadataAllowList = map[string]bool{
	"call_type":  true,
	"visibility": true,
	"importance": true,
}

// cloneMetadata deep-copies a metadata map. A nil input yields an empty map
// so stored nodes never alias caller state.
func cloneMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = CloneValue(v)
	}
	return out
}

// filterMetadata copies only the allow-listed keys of a metadata map.
func filterMetadata(meta map[string]any, allow map[string]bool) map[string]any {
	out := make(map[string]any)
	for k, v := range meta {
		if allow[k] {
			out[k] = CloneValue(v)
		}
	}
	return out
}

// CloneValue deep-copies the JSON-shaped values metadata maps may hold.
// Scalars are returned as-is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = CloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = CloneValue(inner)
		}
		return out
	default:
		return v
	}
}
