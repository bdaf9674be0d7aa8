package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// goExtractor extracts elements and imports from Go source files.
type goExtractor struct{}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte) *FileExtract {
	out := newFileExtract()

	cursor := root.Walk()
	defer cursor.Close()
	e.walk(cursor, source, out)
	return out
}

func (e *goExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, out *FileExtract) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration":
		e.extractFunction(node, source, out)
	case "method_declaration":
		e.extractMethod(node, source, out)
	case "type_declaration":
		e.extractTypeDeclaration(node, source, out)
	case "import_spec":
		e.extractImport(node, source, out)
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, out)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, out)
		}
		cursor.GotoParent()
	}
}

func (e *goExtractor) extractFunction(node *tree_sitter.Node, source []byte, out *FileExtract) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	start, end := lineRange(node)
	out.add(newElement(name, "function", start, end, isGoExported(name)))
}

func (e *goExtractor) extractMethod(node *tree_sitter.Node, source []byte, out *FileExtract) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	start, end := lineRange(node)

	receiver := goReceiverType(node, source)
	el := newElement(qualify(receiver, name), "method", start, end, isGoExported(name))
	if receiver != "" {
		el.Metadata["parent_class"] = receiver
	}
	out.add(el)
}

// extractTypeDeclaration records struct and interface specs as classes;
// other type aliases are not structural elements.
func (e *goExtractor) extractTypeDeclaration(node *tree_sitter.Node, source []byte, out *FileExtract) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		typeNode := child.ChildByFieldName("type")
		if nameNode == nil || typeNode == nil {
			continue
		}
		switch typeNode.Kind() {
		case "struct_type", "interface_type":
			name := nameNode.Utf8Text(source)
			start, end := lineRange(child)
			out.add(newElement(name, "class", start, end, isGoExported(name)))
		}
	}
}

func (e *goExtractor) extractImport(node *tree_sitter.Node, source []byte, out *FileExtract) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "interpreted_string_literal" {
				pathNode = child
				break
			}
		}
	}
	if pathNode == nil {
		return
	}
	out.addImport(strings.Trim(pathNode.Utf8Text(source), `"`))
}

// goReceiverType recovers the bare receiver type name from a method's
// receiver list, stripping pointers and type parameters.
func goReceiverType(node *tree_sitter.Node, source []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	text := strings.Trim(recv.Utf8Text(source), "()")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	typ := fields[len(fields)-1]
	typ = strings.TrimPrefix(typ, "*")
	if i := strings.IndexByte(typ, '['); i > 0 {
		typ = typ[:i]
	}
	return typ
}

// isGoExported reports whether a Go identifier starts with an upper-case
// rune.
func isGoExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
