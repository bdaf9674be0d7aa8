package sync

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/archmirror/internal/graph"
	"github.com/dusk-indust/archmirror/internal/mirror"
	"github.com/dusk-indust/archmirror/internal/scanner"
)

// Result reports how many tracked files a sync pass touched.
type Result struct {
	Updated int
	Added   int
	Removed int
}

// Engine applies incremental or forced updates to one graph/mirror pair.
// Not safe for concurrent use; like the scanner, a single engine owns its
// stores per process run.
type Engine struct {
	scanner  *scanner.Scanner
	detector *Detector
	graph    *graph.Graph
	mirror   *mirror.Mirror
	level    graph.DetailLevel
}

// NewEngine builds a sync engine over the tree rooted at root, reusing a
// scanner for forced rescans and single-file adds.
func NewEngine(root string, g *graph.Graph, m *mirror.Mirror, ignore *scanner.IgnorePolicy, extract scanner.ExtractFunc, level graph.DetailLevel) (*Engine, error) {
	sc, err := scanner.New(root, g, m, ignore, extract)
	if err != nil {
		return nil, err
	}
	return &Engine{
		scanner:  sc,
		detector: NewDetector(sc.Mirror(), ignore),
		graph:    sc.Graph(),
		mirror:   sc.Mirror(),
		level:    level,
	}, nil
}

// Graph returns the graph the engine mutates.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Scanner returns the scanner the engine rescans with.
func (e *Engine) Scanner() *scanner.Scanner { return e.scanner }

// Mirror returns the mirror store the engine mutates.
func (e *Engine) Mirror() *mirror.Mirror { return e.mirror }

// Detector returns the engine's change detector.
func (e *Engine) Detector() *Detector { return e.detector }

// Sync brings the graph and mirror in line with the filesystem for the
// given paths. Directories expand to their immediate files, or are queued
// for a full subtree rescan when recursive. force skips change detection
// and rebuilds every queued path unconditionally. Per-file failures are
// logged and skipped; the file stays in its prior state for the next run.
func (e *Engine) Sync(paths []string, recursive, force bool) (Result, error) {
	files, dirs, err := e.preparePaths(paths, recursive)
	if err != nil {
		return Result{}, err
	}
	if force {
		return e.syncForced(files, dirs, recursive)
	}
	return e.syncIncremental(files, dirs, recursive)
}

// preparePaths resolves the requested paths. Files (and paths gone from
// disk) land in files; directory paths land in dirs, and additionally
// expand to their immediate files when not recursive.
func (e *Engine) preparePaths(paths []string, recursive bool) (files, dirs []string, err error) {
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve sync path %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			files = append(files, abs)
			continue
		}
		if !info.IsDir() {
			files = append(files, abs)
			continue
		}
		dirs = append(dirs, abs)
		if !recursive {
			files = append(files, e.detector.expandDirectory(abs, false)...)
		}
	}
	return files, dirs, nil
}

// syncForced rebuilds every queued path. With recursive, each directory
// gets a full scanner rescan, counting every resulting file node as
// updated; files are removed then re-added unconditionally.
func (e *Engine) syncForced(files, dirs []string, recursive bool) (Result, error) {
	var res Result
	rescanned := make(map[string]bool, len(dirs))
	if recursive {
		for _, dir := range dirs {
			if err := e.scanner.ScanPath(dir, 0, e.level); err != nil {
				return res, err
			}
			rescanned[dir] = true
			res.Updated += e.countFileNodesUnder(dir)
		}
	}
	for _, file := range files {
		if coveredByRescan(file, rescanned) {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			if e.removeFile(file) {
				res.Removed++
			}
			continue
		}
		if err := e.replaceFile(file); err != nil {
			log.Printf("sync: skip %s: %v", file, err)
			continue
		}
		res.Updated++
	}
	return res, nil
}

// syncIncremental diffs the prepared paths and applies only the detected
// changes.
func (e *Engine) syncIncremental(files, dirs []string, recursive bool) (Result, error) {
	var res Result
	// Directory paths stay in the request so deletions inside them are
	// seen even after expansion.
	requested := make([]string, 0, len(files)+len(dirs))
	requested = append(requested, files...)
	requested = append(requested, dirs...)

	changes, err := e.detector.DetectChanges(requested, recursive)
	if err != nil {
		return res, err
	}

	for _, file := range changes.Modified {
		if err := e.replaceFile(file); err != nil {
			log.Printf("sync: skip modified %s: %v", file, err)
			continue
		}
		res.Updated++
	}
	for _, file := range changes.New {
		if err := e.scanner.AddFile(file, e.level); err != nil {
			log.Printf("sync: skip new %s: %v", file, err)
			continue
		}
		res.Added++
	}
	for _, file := range changes.Deleted {
		if e.removeFile(file) {
			res.Removed++
		}
	}
	return res, nil
}

// replaceFile is the universal update strategy: the file's nodes, edges
// and mirror are destroyed and recreated wholesale, never mutated in
// place.
func (e *Engine) replaceFile(file string) error {
	scanner.PruneSubtree(e.graph, file)
	if err := e.mirror.Remove(file); err != nil {
		return err
	}
	return e.scanner.AddFile(file, e.level)
}

// removeFile drops a deleted file's nodes, edges and mirror entry.
func (e *Engine) removeFile(file string) bool {
	pruned := scanner.PruneSubtree(e.graph, file)
	existed := e.mirror.Exists(file)
	if err := e.mirror.Remove(file); err != nil {
		log.Printf("sync: remove mirror for %s: %v", file, err)
	}
	return pruned > 0 || existed
}

// countFileNodesUnder counts file nodes whose path lies at or under dir.
func (e *Engine) countFileNodesUnder(dir string) int {
	prefix := dir + string(filepath.Separator)
	n := 0
	for _, id := range e.graph.NodeIDs() {
		path, ok := strings.CutPrefix(id, "file:")
		if !ok {
			continue
		}
		if path == dir || strings.HasPrefix(path, prefix) {
			n++
		}
	}
	return n
}

// coveredByRescan reports whether a file already fell inside a directory
// that was fully rescanned this pass.
func coveredByRescan(file string, rescanned map[string]bool) bool {
	for dir := range rescanned {
		if isUnder(file, dir) {
			return true
		}
	}
	return false
}
