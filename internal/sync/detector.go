// Package sync keeps the relationship graph and the content mirror
// consistent with the live filesystem: a detector computes the three-way
// diff between mirrored state and disk, and an engine applies targeted
// updates, falling back to full subtree rescans only when forced.
package sync

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dusk-indust/archmirror/internal/mirror"
	"github.com/dusk-indust/archmirror/internal/scanner"
)

// Changes is the three-way diff for one detection pass. The three lists
// are disjoint and sorted.
type Changes struct {
	Modified []string
	New      []string
	Deleted  []string
}

// Empty reports whether no changes were detected.
func (c *Changes) Empty() bool {
	return len(c.Modified) == 0 && len(c.New) == 0 && len(c.Deleted) == 0
}

// Detector classifies paths against mirror state using the stored content
// hash as the only staleness oracle. An optional ignore policy keeps
// detection consistent with what a scan would have tracked.
type Detector struct {
	mirror *mirror.Mirror
	ignore *scanner.IgnorePolicy
}

// NewDetector builds a detector over the given mirror store. ignore may be
// nil.
func NewDetector(m *mirror.Mirror, ignore *scanner.IgnorePolicy) *Detector {
	return &Detector{mirror: m, ignore: ignore}
}

// DetectChanges diffs the given paths against mirror state. Directory
// paths expand to their immediate files, or to every file beneath them
// when recursive. A live file with no mirror is new; one whose stored hash
// no longer matches is modified. Separately, every mirrored path that
// falls within the requested path set but is gone from disk is deleted.
func (d *Detector) DetectChanges(paths []string, recursive bool) (*Changes, error) {
	var files []string
	var dirs []string
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			// Gone from disk; deletion classification below covers it.
			files = append(files, abs)
			continue
		}
		if info.IsDir() {
			dirs = append(dirs, abs)
			files = append(files, d.expandDirectory(abs, recursive)...)
		} else {
			files = append(files, abs)
		}
	}

	changes := &Changes{}
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		if seen[file] {
			continue
		}
		seen[file] = true
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if !d.mirror.Exists(file) {
			changes.New = append(changes.New, file)
		} else if !d.mirror.IsUpToDate(file) {
			changes.Modified = append(changes.Modified, file)
		}
	}

	for _, mirrored := range d.mirror.ListAllMirrors() {
		if !pathInScope(mirrored, seen, dirs, recursive) {
			continue
		}
		if _, err := os.Stat(mirrored); err == nil {
			continue
		}
		changes.Deleted = append(changes.Deleted, mirrored)
	}

	sortChanges(changes)
	return changes, nil
}

// expandDirectory lists the files under dir, immediate only or recursively,
// skipping ignored entries.
func (d *Detector) expandDirectory(dir string, recursive bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if d.ignore != nil && d.ignore.ShouldIgnore(full, entry.IsDir()) {
			continue
		}
		if entry.IsDir() {
			if recursive {
				files = append(files, d.expandDirectory(full, true)...)
			}
			continue
		}
		files = append(files, full)
	}
	return files
}

// pathInScope reports whether a mirrored path belongs to the requested
// set: it is one of the requested files, sits directly inside a requested
// directory, or anywhere beneath one when recursive.
func pathInScope(path string, files map[string]bool, dirs []string, recursive bool) bool {
	if files[path] {
		return true
	}
	for _, dir := range dirs {
		if recursive {
			if path == dir || isUnder(path, dir) {
				return true
			}
		} else if filepath.Dir(path) == dir {
			return true
		}
	}
	return false
}

func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func sortChanges(c *Changes) {
	sort.Strings(c.Modified)
	sort.Strings(c.New)
	sort.Strings(c.Deleted)
}
