package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor extracts elements and imports from Python source files.
// Functions inside a class body become methods qualified by the class
// name; deeper nesting is not descended into.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte) *FileExtract {
	out := newFileExtract()
	e.walkScope(root, source, out, "")
	return out
}

// walkScope visits one lexical scope. class is the enclosing class name
// when visiting a class body, empty at module level.
func (e *pyExtractor) walkScope(node *tree_sitter.Node, source []byte, out *FileExtract, class string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "function_definition":
			e.extractFunction(child, source, out, class)
		case "class_definition":
			e.extractClass(child, source, out)
		case "decorated_definition":
			// The wrapped definition is a child; visit it with the same
			// scope.
			e.walkScope(child, source, out, class)
		case "import_statement":
			e.extractImport(child, source, out)
		case "import_from_statement":
			e.extractFromImport(child, source, out)
		case "block":
			e.walkScope(child, source, out, class)
		case "if_statement", "try_statement":
			// Module-level guards (if __name__ == ..., import fallbacks)
			// still contain definitions worth recording.
			e.walkScope(child, source, out, class)
		}
	}
}

func (e *pyExtractor) extractFunction(node *tree_sitter.Node, source []byte, out *FileExtract, class string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	start, end := lineRange(node)

	if class == "" {
		out.add(newElement(name, "function", start, end, isPyExported(name)))
		return
	}
	el := newElement(qualify(class, name), "method", start, end, isPyExported(name))
	el.Metadata["parent_class"] = class
	out.add(el)
}

func (e *pyExtractor) extractClass(node *tree_sitter.Node, source []byte, out *FileExtract) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	start, end := lineRange(node)
	out.add(newElement(name, "class", start, end, isPyExported(name)))

	if body := node.ChildByFieldName("body"); body != nil {
		e.walkScope(body, source, out, name)
	}
}

func (e *pyExtractor) extractImport(node *tree_sitter.Node, source []byte, out *FileExtract) {
	// import_statement children: the "import" keyword then dotted_name(s)
	// or aliased_import(s).
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			out.addImport(child.Utf8Text(source))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				out.addImport(name.Utf8Text(source))
			}
		}
	}
}

func (e *pyExtractor) extractFromImport(node *tree_sitter.Node, source []byte, out *FileExtract) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "dotted_name" {
				moduleNode = child
				break
			}
		}
	}
	if moduleNode == nil {
		return
	}
	out.addImport(moduleNode.Utf8Text(source))
}

// isPyExported follows the underscore convention: a leading underscore
// marks a private name.
func isPyExported(name string) bool {
	return !strings.HasPrefix(name, "_")
}
