package scanner

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultIgnores are the legacy substring patterns applied when a policy is
// built without an explicit list. Matching any of them in an entry's
// basename excludes the entry.
var DefaultIgnores = []string{
	".git",
	".venv",
	"__pycache__",
	"node_modules",
	".archmirror",
}

// IgnorePolicy decides whether a filesystem path is excluded from scanning.
// Three tiers compose, in precedence order: legacy substring patterns,
// gitignore-style patterns loaded from the scan root's .gitignore, and
// user-supplied extra patterns matched like legacy substrings. Negation
// lines in the gitignore tier un-exclude paths matched by earlier gitignore
// patterns; they never override the substring tiers. Gitignore patterns are
// matched against the root-relative path, as git does.
type IgnorePolicy struct {
	root     string
	legacy   []string
	matchers []*gitignore.GitIgnore
	extras   []string
}

// NewIgnorePolicy builds a policy for the tree rooted at root. A missing
// .gitignore simply yields no gitignore patterns. Passing nil legacy
// patterns applies DefaultIgnores; pass an empty slice to disable the tier.
func NewIgnorePolicy(root string, legacy, extras []string) *IgnorePolicy {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if legacy == nil {
		legacy = DefaultIgnores
	}
	p := &IgnorePolicy{
		root:   root,
		legacy: append([]string(nil), legacy...),
		extras: append([]string(nil), extras...),
	}
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		if compiled, err := gitignore.CompileIgnoreFile(gitignorePath); err == nil {
			p.matchers = append(p.matchers, compiled)
		}
	}
	return p
}

// NewIgnorePolicyFromPatterns builds a policy whose gitignore tier is the
// given pattern lines, with no legacy or extra tiers. Used when patterns
// come from configuration rather than a .gitignore file.
func NewIgnorePolicyFromPatterns(patterns []string) *IgnorePolicy {
	p := &IgnorePolicy{legacy: []string{}}
	p.AddPatternLines(patterns...)
	return p
}

// AddPatternLines compiles additional gitignore-style pattern lines into
// the policy. Negations apply within one batch of lines.
func (p *IgnorePolicy) AddPatternLines(lines ...string) {
	if len(lines) == 0 {
		return
	}
	p.matchers = append(p.matchers, gitignore.CompileIgnoreLines(lines...))
}

// AddExtras appends user-supplied substring patterns.
func (p *IgnorePolicy) AddExtras(patterns ...string) {
	p.extras = append(p.extras, patterns...)
}

// ShouldIgnore reports whether the entry at path is excluded. isDir must be
// accurate for directory-only gitignore patterns ("build/") to apply.
func (p *IgnorePolicy) ShouldIgnore(path string, isDir bool) bool {
	base := filepath.Base(path)
	for _, pattern := range p.legacy {
		if pattern != "" && strings.Contains(base, pattern) {
			return true
		}
	}
	if matchPath, ok := p.relativeMatchPath(path, isDir); ok {
		for _, matcher := range p.matchers {
			if matcher.MatchesPath(matchPath) {
				return true
			}
		}
	}
	for _, pattern := range p.extras {
		if pattern != "" && strings.Contains(base, pattern) {
			return true
		}
	}
	return false
}

// relativeMatchPath converts path to the slash-separated root-relative form
// gitignore patterns are written against, with a trailing slash for
// directories. Returns false for the root itself and for paths outside it:
// patterns never apply to the tree above the root. A policy built without a
// root matches paths as given.
func (p *IgnorePolicy) relativeMatchPath(path string, isDir bool) (string, bool) {
	matchPath := path
	if p.root != "" {
		rel, err := filepath.Rel(p.root, path)
		if err != nil || rel == "." || rel == ".." ||
			strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", false
		}
		matchPath = rel
	}
	matchPath = filepath.ToSlash(matchPath)
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}
	return matchPath, true
}
