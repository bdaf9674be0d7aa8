// Package scanner walks a source tree, consulting an ignore policy and
// populating the relationship graph and the content mirror as it descends.
// Rescanning a subtree first prunes every node under it, so a scan is an
// idempotent replace rather than an accumulating append.
package scanner

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dusk-indust/archmirror/internal/graph"
	"github.com/dusk-indust/archmirror/internal/mirror"
)

// ExtractFunc populates a file's structural elements and import list.
// Extraction is optional: a nil hook leaves every file mirror with empty
// elements, which is a valid state.
type ExtractFunc func(path string) (map[string]mirror.CodeElement, []string, error)

// Scanner walks the tree rooted at one directory. Not safe for concurrent
// use.
type Scanner struct {
	root    string
	graph   *graph.Graph
	mirror  *mirror.Mirror
	ignore  *IgnorePolicy
	extract ExtractFunc
}

// New builds a scanner over root. A nil ignore policy gets the defaults
// plus the root's .gitignore; a nil graph or mirror is created fresh, with
// the mirror store in its default location under root.
func New(root string, g *graph.Graph, m *mirror.Mirror, ignore *IgnorePolicy, extract ExtractFunc) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("scan root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", abs)
	}
	if g == nil {
		g = graph.New()
	}
	if m == nil {
		m, err = mirror.New(abs, "")
		if err != nil {
			return nil, err
		}
	}
	if ignore == nil {
		ignore = NewIgnorePolicy(abs, nil, nil)
	}
	return &Scanner{root: abs, graph: g, mirror: m, ignore: ignore, extract: extract}, nil
}

// Root returns the absolute scan root.
func (s *Scanner) Root() string { return s.root }

// Graph returns the graph the scanner populates.
func (s *Scanner) Graph() *graph.Graph { return s.graph }

// Mirror returns the mirror store the scanner populates.
func (s *Scanner) Mirror() *mirror.Mirror { return s.mirror }

// Scan walks the whole tree from the root. maxDepth bounds the walk, with 0
// meaning unlimited; depth is counted from the root, so maxDepth 1 admits
// only the root's immediate entries. Returns the populated graph and
// mirror.
func (s *Scanner) Scan(maxDepth int, level graph.DetailLevel) (*graph.Graph, *mirror.Mirror, error) {
	if err := s.ScanPath(s.root, maxDepth, level); err != nil {
		return nil, nil, err
	}
	return s.graph, s.mirror, nil
}

// ScanPath rescans the subtree rooted at path. Existing nodes under the
// path are pruned first.
func (s *Scanner) ScanPath(path string, maxDepth int, level graph.DetailLevel) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve scan path %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("scan path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan path %s is not a directory", abs)
	}

	PruneSubtree(s.graph, abs)

	if err := s.graph.AddNode(graph.NewDirectoryNode(graph.DirID(abs), abs, nil)); err != nil {
		return err
	}
	// A subtree rescan reattaches to an already-scanned parent when present.
	parent := filepath.Dir(abs)
	if _, ok := s.graph.GetNode(graph.DirID(parent), graph.DetailMinimal); ok {
		if err := s.graph.AddRelationship(graph.NewContains(graph.DirID(parent), graph.DirID(abs), nil)); err != nil {
			return err
		}
	}
	return s.scanDirectory(abs, 0, maxDepth, level)
}

// AddFile tracks a single file outside a full walk: it ensures the file's
// ancestor directory chain exists in the graph, then creates the file node,
// its containment edge and its mirror. Used by the sync engine when a new
// file appears under a directory that was never scanned.
func (s *Scanner) AddFile(path string, level graph.DetailLevel) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if err := s.ensureDirectoryChain(dir, level); err != nil {
		return err
	}
	return s.addFile(dir, abs, level)
}

// ensureDirectoryChain creates Directory nodes, containment edges and
// directory mirrors from the scan root (or the filesystem root, whichever
// is hit first) down to dir. Existing nodes are left alone.
func (s *Scanner) ensureDirectoryChain(dir string, level graph.DetailLevel) error {
	if _, ok := s.graph.GetNode(graph.DirID(dir), graph.DetailMinimal); ok {
		return nil
	}
	parent := filepath.Dir(dir)
	atTop := dir == s.root || parent == dir
	if !atTop {
		if err := s.ensureDirectoryChain(parent, level); err != nil {
			return err
		}
	}
	if err := s.graph.AddNode(graph.NewDirectoryNode(graph.DirID(dir), dir, nil)); err != nil {
		return err
	}
	if !s.mirror.Exists(dir) {
		if files, subdirs, err := s.mirror.ScanDirectory(dir); err != nil {
			log.Printf("scanner: skip directory mirror for %s: %v", dir, err)
		} else if err := s.mirror.CreateDirectoryMirror(dir, files, subdirs, level); err != nil {
			log.Printf("scanner: skip directory mirror for %s: %v", dir, err)
		}
	}
	if atTop {
		return nil
	}
	return s.graph.AddRelationship(graph.NewContains(graph.DirID(parent), graph.DirID(dir), nil))
}

// scanDirectory lists one directory at the given depth, writes its mirror,
// and descends. Per-file failures are logged and skipped so one unreadable
// entry cannot abort the walk.
func (s *Scanner) scanDirectory(dir string, depth, maxDepth int, level graph.DetailLevel) error {
	files, subdirs, err := s.listFiltered(dir)
	if err != nil {
		log.Printf("scanner: skip unreadable directory %s: %v", dir, err)
		return nil
	}

	if err := s.mirror.CreateDirectoryMirror(dir, files, subdirs, level); err != nil {
		log.Printf("scanner: skip directory mirror for %s: %v", dir, err)
	}

	if maxDepth > 0 && depth+1 > maxDepth {
		return nil
	}

	for _, file := range files {
		if err := s.addFile(dir, file, level); err != nil {
			log.Printf("scanner: skip file %s: %v", file, err)
		}
	}
	for _, sub := range subdirs {
		if err := s.graph.AddNode(graph.NewDirectoryNode(graph.DirID(sub), sub, nil)); err != nil {
			return err
		}
		if err := s.graph.AddRelationship(graph.NewContains(graph.DirID(dir), graph.DirID(sub), nil)); err != nil {
			return err
		}
		if err := s.scanDirectory(sub, depth+1, maxDepth, level); err != nil {
			return err
		}
	}
	return nil
}

// addFile creates the file node, its containment edge and its mirror,
// running the extraction hook when one is configured.
func (s *Scanner) addFile(dir, file string, level graph.DetailLevel) error {
	var elements map[string]mirror.CodeElement
	var imports []string
	if s.extract != nil {
		var err error
		elements, imports, err = s.extract(file)
		if err != nil {
			// Extraction failure is not fatal: the file is still tracked,
			// just without structural elements.
			log.Printf("scanner: extraction failed for %s: %v", file, err)
			elements, imports = nil, nil
		}
	}

	if err := s.mirror.CreateFileMirror(file, elements, imports, level); err != nil {
		return err
	}
	if err := s.graph.AddNode(graph.NewFileNode(graph.FileID(file), file, filepath.Ext(file), nil)); err != nil {
		return err
	}
	if err := s.graph.AddRelationship(graph.NewContains(graph.DirID(dir), graph.FileID(file), nil)); err != nil {
		return err
	}
	return s.addElementNodes(file, elements)
}

// addElementNodes turns extracted elements into Function/Class/Method nodes
// contained by their file, in deterministic name order.
func (s *Scanner) addElementNodes(file string, elements map[string]mirror.CodeElement) error {
	names := make([]string, 0, len(elements))
	for name := range elements {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		el := elements[name]
		var node graph.Node
		switch el.Kind {
		case "function":
			node = graph.NewFunctionNode(graph.FunctionID(file, el.Name), el.Name, nil, nil, el.LineStart, el.LineEnd, el.Metadata)
		case "class":
			node = graph.NewClassNode(graph.ClassID(file, el.Name), el.Name, nil, el.LineStart, el.LineEnd, el.Metadata)
		case "method":
			var parent string
			if name, _ := el.Metadata["parent_class"].(string); name != "" {
				parent = graph.ClassID(file, name)
			}
			node = graph.NewMethodNode(graph.MethodID(file, el.Name), el.Name, nil, nil, parent, el.LineStart, el.LineEnd, el.Metadata)
		default:
			continue
		}
		if err := s.graph.AddNode(node); err != nil {
			return err
		}
		if err := s.graph.AddRelationship(graph.NewContains(graph.FileID(file), node.NodeID(), nil)); err != nil {
			return err
		}
	}
	return nil
}

// listFiltered returns the directory's immediate files and subdirectories,
// sorted, with ignored entries dropped.
func (s *Scanner) listFiltered(dir string) (files, subdirs []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if s.ignore.ShouldIgnore(full, entry.IsDir()) {
			continue
		}
		if entry.IsDir() {
			subdirs = append(subdirs, full)
		} else {
			files = append(files, full)
		}
	}
	sort.Strings(files)
	sort.Strings(subdirs)
	return files, subdirs, nil
}

// PruneSubtree removes every node whose source path is path or lies under
// it, together with all edges touching those nodes, and returns how many
// nodes were removed. Feature nodes have no source path and are never
// pruned.
func PruneSubtree(g *graph.Graph, path string) int {
	prefix := path + string(filepath.Separator)
	var doomed []string
	for _, id := range g.NodeIDs() {
		src := nodeSourcePath(id)
		if src == "" {
			continue
		}
		if src == path || strings.HasPrefix(src, prefix) {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		RemoveNodeAndEdges(g, id)
	}
	return len(doomed)
}

// RemoveNodeAndEdges removes a node's relationships in both directions and
// then the node itself.
func RemoveNodeAndEdges(g *graph.Graph, id string) {
	if out, err := g.Outgoing(id, graph.DetailMinimal); err == nil {
		for _, r := range out {
			_ = g.RemoveRelationship(r.SourceID, r.TargetID)
		}
	}
	if in, err := g.Incoming(id, graph.DetailMinimal); err == nil {
		for _, r := range in {
			_ = g.RemoveRelationship(r.SourceID, r.TargetID)
		}
	}
	_ = g.RemoveNode(id)
}

// nodeSourcePath recovers the filesystem path a node id was derived from,
// or "" for ids without one (features).
func nodeSourcePath(id string) string {
	switch {
	case strings.HasPrefix(id, "file:"):
		return strings.TrimPrefix(id, "file:")
	case strings.HasPrefix(id, "dir:"):
		return strings.TrimPrefix(id, "dir:")
	case strings.HasPrefix(id, "func:"), strings.HasPrefix(id, "class:"), strings.HasPrefix(id, "method:"):
		rest := id[strings.Index(id, ":")+1:]
		if i := strings.LastIndex(rest, ":"); i > 0 {
			return rest[:i]
		}
	}
	return ""
}
