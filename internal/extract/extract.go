// Package extract parses source files with tree-sitter and reports their
// structural elements (functions, classes, methods) and import lists, in
// the shape the scanner and mirror store consume. Extraction is optional
// everywhere it is used: unsupported or unparsable files simply yield no
// elements.
package extract

import (
	"fmt"
	"os"
	"path/filepath"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/dusk-indust/archmirror/internal/mirror"
)

// Language identifies a supported source language.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangUnknown    Language = ""
)

// DetectLanguage maps a file path to its language by extension.
func DetectLanguage(path string) Language {
	switch filepath.Ext(path) {
	case ".go":
		return LangGo
	case ".py":
		return LangPython
	case ".ts", ".tsx":
		return LangTypeScript
	}
	return LangUnknown
}

// FileExtract is the structural summary of one parsed file. Elements are
// keyed by their (class-qualified) name.
type FileExtract struct {
	Elements map[string]mirror.CodeElement
	Imports  []string
}

// languageExtractor walks a parsed AST and fills a FileExtract.
type languageExtractor interface {
	Extract(root *tree_sitter.Node, source []byte) *FileExtract
}

// Extractor parses files in every registered language. A new tree-sitter
// parser is created per parse call, so the type is safe for sequential use
// and individual files can be parsed from separate goroutines.
type Extractor struct {
	languages  map[Language]*tree_sitter.Language
	extractors map[Language]languageExtractor
}

// New creates an Extractor with Go, Python and TypeScript grammars
// registered.
func New() *Extractor {
	return &Extractor{
		languages: map[Language]*tree_sitter.Language{
			LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
			LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
			LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		},
		extractors: map[Language]languageExtractor{
			LangGo:         &goExtractor{},
			LangPython:     &pyExtractor{},
			LangTypeScript: &tsExtractor{},
		},
	}
}

// Supported reports whether the file's language has a registered grammar.
func (e *Extractor) Supported(path string) bool {
	_, ok := e.languages[DetectLanguage(path)]
	return ok
}

// ExtractFile reads and parses one file. Unsupported languages yield empty
// results without error; read and parse failures are errors. The signature
// matches what the scanner accepts as its extraction hook.
func (e *Extractor) ExtractFile(path string) (map[string]mirror.CodeElement, []string, error) {
	lang := DetectLanguage(path)
	if _, ok := e.languages[lang]; !ok {
		return nil, nil, nil
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	result, err := e.Parse(source, lang)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return result.Elements, result.Imports, nil
}

// Parse extracts the structural summary of one source buffer.
func (e *Extractor) Parse(source []byte, lang Language) (*FileExtract, error) {
	tsLang, ok := e.languages[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	ext := e.extractors[lang]

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree")
	}
	defer tree.Close()

	return ext.Extract(tree.RootNode(), source), nil
}

// newFileExtract returns an empty, ready-to-fill summary.
func newFileExtract() *FileExtract {
	return &FileExtract{Elements: make(map[string]mirror.CodeElement)}
}

// add records an element under its qualified name, keeping the first
// occurrence when a name repeats.
func (f *FileExtract) add(el mirror.CodeElement) {
	if _, ok := f.Elements[el.Name]; ok {
		return
	}
	f.Elements[el.Name] = el
}

// addImport appends an import path, ignoring duplicates.
func (f *FileExtract) addImport(path string) {
	if path == "" {
		return
	}
	for _, existing := range f.Imports {
		if existing == path {
			return
		}
	}
	f.Imports = append(f.Imports, path)
}

// lineRange converts tree-sitter's zero-based rows to one-based lines.
func lineRange(node *tree_sitter.Node) (start, end int) {
	return int(node.StartPosition().Row) + 1, int(node.EndPosition().Row) + 1
}

// newElement builds a CodeElement with its visibility recorded in
// metadata.
func newElement(name, kind string, start, end int, exported bool) mirror.CodeElement {
	visibility := "private"
	if exported {
		visibility = "public"
	}
	return mirror.CodeElement{
		Name:      name,
		Kind:      kind,
		LineStart: start,
		LineEnd:   end,
		Metadata:  map[string]any{"visibility": visibility},
	}
}

// qualify prefixes a member name with its class, keeping element names
// unique within a file.
func qualify(class, name string) string {
	if class == "" {
		return name
	}
	return class + "." + name
}
