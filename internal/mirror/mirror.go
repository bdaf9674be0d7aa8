// Package mirror maintains the content mirror: a path-addressed store of
// per-file and per-directory structural records kept parallel to a source
// tree. Records are stored as one JSON document per source path under a
// dedicated mirror root, always at full fidelity; detail levels are applied
// when records are read back.
package mirror

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dusk-indust/archmirror/internal/graph"
)

// ErrStorage marks mirror read/write or hashing failures. Direct mirror
// operations propagate it; scanner and sync per-file loops catch and log it
// so one unreadable file cannot abort a whole-tree pass.
var ErrStorage = errors.New("mirror storage failure")

// mirrorExt is appended to a source basename to form its mirror filename.
const mirrorExt = ".json"

// Mirror is a content mirror rooted at one source tree. Not safe for
// concurrent use; a single scanner or sync engine owns it per process run.
type Mirror struct {
	rootPath   string
	mirrorPath string
}

// New creates a mirror store for the tree rooted at rootPath. When
// mirrorPath is empty the store lives in <root>/.archmirror/mirrors. The
// mirror root directory is created on first use.
func New(rootPath, mirrorPath string) (*Mirror, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve root %s: %v", ErrStorage, rootPath, err)
	}
	if mirrorPath == "" {
		mirrorPath = filepath.Join(absRoot, ".archmirror", "mirrors")
	}
	absMirror, err := filepath.Abs(mirrorPath)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve mirror root %s: %v", ErrStorage, mirrorPath, err)
	}
	if err := os.MkdirAll(absMirror, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create mirror root %s: %v", ErrStorage, absMirror, err)
	}
	return &Mirror{rootPath: absRoot, mirrorPath: absMirror}, nil
}

// Root returns the absolute source tree root.
func (m *Mirror) Root() string { return m.rootPath }

// MirrorRoot returns the absolute mirror store root.
func (m *Mirror) MirrorRoot() string { return m.mirrorPath }

// MirrorPath maps a source path to its mirror record location:
// <mirror_root>/<relative_path>.json.
func (m *Mirror) MirrorPath(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	rel, err := filepath.Rel(m.rootPath, abs)
	if err != nil {
		rel = filepath.Base(abs)
	}
	return filepath.Join(m.mirrorPath, filepath.Dir(rel), filepath.Base(rel)+mirrorExt)
}

// sourcePath reverses MirrorPath for a record found under the mirror root.
func (m *Mirror) sourcePath(mirrorFile string) string {
	rel, err := filepath.Rel(m.mirrorPath, mirrorFile)
	if err != nil {
		return ""
	}
	return filepath.Join(m.rootPath, strings.TrimSuffix(rel, mirrorExt))
}

// Content reads the mirrored record for a source path, projected to the
// given level. A missing, corrupt or unreadable record degrades to
// (nil, false): absence is a valid, recoverable state that triggers
// re-creation on the next sync.
func (m *Mirror) Content(source string, level graph.DetailLevel) (Content, bool) {
	data, err := os.ReadFile(m.MirrorPath(source))
	if err != nil {
		return nil, false
	}
	content, err := decodeContent(data)
	if err != nil {
		log.Printf("mirror: unreadable record for %s: %v", source, err)
		return nil, false
	}
	return content.ProjectContent(level), true
}

// decodeContent dispatches on the stored record's kind discriminant.
func decodeContent(data []byte) (Content, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Kind {
	case contentKindFile:
		var c FileContent
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return &c, nil
	case contentKindDirectory:
		var c DirectoryContent
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return &c, nil
	}
	return nil, fmt.Errorf("unknown mirror record kind %q", probe.Kind)
}

// Update writes the mirrored record for a source path. Records always
// persist at full fidelity regardless of level — a lower write level must
// never discard the staleness oracle — so level only stamps the record's
// detail_level annotation. Projection happens at read time.
func (m *Mirror) Update(source string, content Content, level graph.DetailLevel) error {
	full := content.ProjectContent(graph.DetailDetailed)
	switch c := full.(type) {
	case *FileContent:
		c.DetailLevel = level
	case *DirectoryContent:
		c.DetailLevel = level
	}

	data, err := json.MarshalIndent(full, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode mirror for %s: %v", ErrStorage, source, err)
	}

	target := m.MirrorPath(source)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: create mirror dir for %s: %v", ErrStorage, source, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("%w: write mirror for %s: %v", ErrStorage, source, err)
	}
	return nil
}

// Exists reports whether a mirror record exists for the source path.
func (m *Mirror) Exists(source string) bool {
	_, err := os.Stat(m.MirrorPath(source))
	return err == nil
}

// Remove deletes the mirror record for a source path, if present.
func (m *Mirror) Remove(source string) error {
	err := os.Remove(m.MirrorPath(source))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove mirror for %s: %v", ErrStorage, source, err)
	}
	return nil
}

// ComputeHash returns the hex sha-256 digest of the file's raw bytes.
func (m *Mirror) ComputeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: hash %s: %v", ErrStorage, path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// IsUpToDate reports whether the stored hash for a source file matches a
// freshly computed one. Any missing mirror, missing hash or I/O failure
// answers false: unknown state means stale.
func (m *Mirror) IsUpToDate(source string) bool {
	info, err := os.Stat(source)
	if err != nil || info.IsDir() {
		return false
	}
	content, ok := m.Content(source, graph.DetailDetailed)
	if !ok {
		return false
	}
	fc, ok := content.(*FileContent)
	if !ok || fc.SourceHash == "" {
		return false
	}
	current, err := m.ComputeHash(source)
	if err != nil {
		return false
	}
	return fc.SourceHash == current
}

// CreateFileMirror hashes the source file and writes its mirror record.
// Empty elements and imports are valid: structural extraction is optional.
func (m *Mirror) CreateFileMirror(source string, elements map[string]CodeElement, imports []string, level graph.DetailLevel) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrStorage, source, err)
	}
	hash, err := m.ComputeHash(abs)
	if err != nil {
		return err
	}
	return m.Update(abs, NewFileContent(abs, elements, imports, hash), level)
}

// CreateDirectoryMirror writes a directory's mirror record.
func (m *Mirror) CreateDirectoryMirror(source string, files, subdirectories []string, level graph.DetailLevel) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrStorage, source, err)
	}
	return m.Update(abs, NewDirectoryContent(abs, files, subdirectories), level)
}

// ListAllMirrors recovers every tracked source path by walking the mirror
// root and reversing the path mapping. Results are sorted for determinism.
func (m *Mirror) ListAllMirrors() []string {
	var sources []string
	_ = filepath.WalkDir(m.mirrorPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), mirrorExt) {
			return nil
		}
		if src := m.sourcePath(path); src != "" {
			sources = append(sources, src)
		}
		return nil
	})
	sort.Strings(sources)
	return sources
}

// ScanDirectory lists the immediate non-hidden files and subdirectories of
// one directory. It is a pure filesystem helper: no filtering beyond the
// hidden-entry rule, no recursion.
func (m *Mirror) ScanDirectory(path string) (files, subdirectories []string, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: resolve %s: %v", ErrStorage, path, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list %s: %v", ErrStorage, abs, err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		full := filepath.Join(abs, entry.Name())
		if entry.IsDir() {
			subdirectories = append(subdirectories, full)
		} else {
			files = append(files, full)
		}
	}
	return files, subdirectories, nil
}

// Clear removes every record under the mirror root, keeping the root itself.
func (m *Mirror) Clear() error {
	entries, err := os.ReadDir(m.mirrorPath)
	if err != nil {
		return fmt.Errorf("%w: list mirror root: %v", ErrStorage, err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(m.mirrorPath, entry.Name())); err != nil {
			return fmt.Errorf("%w: clear %s: %v", ErrStorage, entry.Name(), err)
		}
	}
	return nil
}
