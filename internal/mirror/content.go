package mirror

import (
	"fmt"
	"path/filepath"

	"github.com/dusk-indust/archmirror/internal/graph"
)

// Content is a mirrored structural record for one source path. Concrete
// types: *FileContent and *DirectoryContent.
type Content interface {
	ContentPath() string
	ProjectContent(level graph.DetailLevel) Content

	content() // closed variant set
}

// CodeElement is one named structural element inside a file (function,
// class, method and so on, as reported by extraction).
type CodeElement struct {
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	LineStart int            `json:"line_start"`
	LineEnd   int            `json:"line_end"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// FileContent is the mirrored record of a single source file. SourceHash is
// the sha-256 digest of the file's bytes at the moment the mirror was
// written; it is the only staleness oracle (timestamps are never trusted).
//
// ElementCount and ImportCount are populated only by MINIMAL projections,
// which carry counts instead of element bodies.
type FileContent struct {
	Kind         string                 `json:"kind"`
	Path         string                 `json:"path"`
	Extension    string                 `json:"extension"`
	Elements     map[string]CodeElement `json:"elements,omitempty"`
	Imports      []string               `json:"imports,omitempty"`
	SourceHash   string                 `json:"source_hash,omitempty"`
	ElementCount int                    `json:"element_count,omitempty"`
	ImportCount  int                    `json:"import_count,omitempty"`
	DetailLevel  graph.DetailLevel      `json:"detail_level,omitempty"`
}

const (
	contentKindFile      = "file"
	contentKindDirectory = "directory"
)

// NewFileContent builds a file record. The extension is derived from the
// path when empty.
func NewFileContent(path string, elements map[string]CodeElement, imports []string, sourceHash string) *FileContent {
	return &FileContent{
		Kind:       contentKindFile,
		Path:       path,
		Extension:  filepath.Ext(path),
		Elements:   cloneElements(elements),
		Imports:    append([]string(nil), imports...),
		SourceHash: sourceHash,
	}
}

func (c *FileContent) content() {}

// ContentPath returns the source path this record mirrors.
func (c *FileContent) ContentPath() string { return c.Path }

// AddElement adds a named element; duplicate names are an integrity error.
func (c *FileContent) AddElement(el CodeElement) error {
	if c.Elements == nil {
		c.Elements = make(map[string]CodeElement)
	}
	if _, ok := c.Elements[el.Name]; ok {
		return fmt.Errorf("%w: element %q already exists in %s", graph.ErrIntegrity, el.Name, c.Path)
	}
	c.Elements[el.Name] = el
	return nil
}

// AddImport appends an import path, ignoring duplicates.
func (c *FileContent) AddImport(importPath string) {
	for _, existing := range c.Imports {
		if existing == importPath {
			return
		}
	}
	c.Imports = append(c.Imports, importPath)
}

// ProjectContent returns a copy reduced to the given detail level. MINIMAL
// keeps path, extension and element/import counts only; STANDARD keeps
// elements with allow-list-filtered metadata; DETAILED is a full copy with
// the detail level stamped.
func (c *FileContent) ProjectContent(level graph.DetailLevel) Content {
	out := &FileContent{Kind: contentKindFile, Path: c.Path, Extension: c.Extension}
	switch level {
	case graph.DetailMinimal:
		out.ElementCount = len(c.Elements)
		out.ImportCount = len(c.Imports)
	case graph.DetailStandard:
		out.Elements = projectElements(c.Elements, level)
		out.Imports = append([]string(nil), c.Imports...)
		out.SourceHash = c.SourceHash
	default:
		out.Elements = projectElements(c.Elements, level)
		out.Imports = append([]string(nil), c.Imports...)
		out.SourceHash = c.SourceHash
		out.DetailLevel = graph.DetailDetailed
	}
	return out
}

// DirectoryContent is the mirrored record of a directory: the filtered,
// ordered lists of its immediate children. FileCount and SubdirectoryCount
// are populated only by MINIMAL projections.
type DirectoryContent struct {
	Kind              string            `json:"kind"`
	Path              string            `json:"path"`
	Files             []string          `json:"files,omitempty"`
	Subdirectories    []string          `json:"subdirectories,omitempty"`
	FileCount         int               `json:"file_count,omitempty"`
	SubdirectoryCount int               `json:"subdirectory_count,omitempty"`
	DetailLevel       graph.DetailLevel `json:"detail_level,omitempty"`
}

// NewDirectoryContent builds a directory record.
func NewDirectoryContent(path string, files, subdirectories []string) *DirectoryContent {
	return &DirectoryContent{
		Kind:           contentKindDirectory,
		Path:           path,
		Files:          append([]string(nil), files...),
		Subdirectories: append([]string(nil), subdirectories...),
	}
}

func (c *DirectoryContent) content() {}

// ContentPath returns the source path this record mirrors.
func (c *DirectoryContent) ContentPath() string { return c.Path }

// ProjectContent returns a copy reduced to the given detail level. MINIMAL
// keeps the path and child counts only.
func (c *DirectoryContent) ProjectContent(level graph.DetailLevel) Content {
	out := &DirectoryContent{Kind: contentKindDirectory, Path: c.Path}
	switch level {
	case graph.DetailMinimal:
		out.FileCount = len(c.Files)
		out.SubdirectoryCount = len(c.Subdirectories)
	case graph.DetailStandard:
		out.Files = append([]string(nil), c.Files...)
		out.Subdirectories = append([]string(nil), c.Subdirectories...)
	default:
		out.Files = append([]string(nil), c.Files...)
		out.Subdirectories = append([]string(nil), c.Subdirectories...)
		out.DetailLevel = graph.DetailDetailed
	}
	return out
}

func cloneElements(elements map[string]CodeElement) map[string]CodeElement {
	out := make(map[string]CodeElement, len(elements))
	for name, el := range elements {
		out[name] = el
	}
	return out
}

// projectElements copies the element map, filtering element metadata at
// STANDARD the same way node metadata is filtered.
func projectElements(elements map[string]CodeElement, level graph.DetailLevel) map[string]CodeElement {
	out := make(map[string]CodeElement, len(elements))
	for name, el := range elements {
		copied := el
		if level == graph.DetailStandard {
			copied.Metadata = filterElementMetadata(el.Metadata)
		} else {
			copied.Metadata = copyElementMetadata(el.Metadata)
		}
		out[name] = copied
	}
	return out
}

var elementMetadataAllowList = map[string]bool{
	"visibility":   true,
	"deprecated":   true,
	"access_level": true,
	"source_file":  true,
}

func filterElementMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any)
	for k, v := range meta {
		if elementMetadataAllowList[k] {
			out[k] = graph.CloneValue(v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func copyElementMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = graph.CloneValue(v)
	}
	return out
}
