package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsExtractor extracts elements and imports from TypeScript source files.
type tsExtractor struct{}

func (e *tsExtractor) Extract(root *tree_sitter.Node, source []byte) *FileExtract {
	out := newFileExtract()

	cursor := root.Walk()
	defer cursor.Close()
	e.walk(cursor, source, out)
	return out
}

func (e *tsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, out *FileExtract) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration":
		e.extractFunction(node, source, out)
	case "class_declaration":
		e.extractClass(node, source, out)
	case "lexical_declaration":
		e.extractArrowFunctions(node, source, out)
	case "import_statement":
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

func (e *tsExtractor) extractFunction(node *tree_sitter.Node, source []byte, out *FileExtract) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	start, end := lineRange(node)
	out.add(newElement(name, "function", start, end, isTSExported(node)))
}

func (e *tsExtractor) extractClass(node *tree_sitter.Node, source []byte, out *FileExtract) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	className := nameNode.Utf8Text(source)
	start, end := lineRange(node)
	out.add(newElement(className, "class", start, end, isTSExported(node)))

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		member := body.Child(i)
		if member == nil || member.Kind() != "method_definition" {
			continue
		}
		memberName := member.ChildByFieldName("name")
		if memberName == nil {
			continue
		}
		name := memberName.Utf8Text(source)
		mStart, mEnd := lineRange(member)
		el := newElement(qualify(className, name), "method", mStart, mEnd, !tsHasModifier(member, source, "private"))
		el.Metadata["parent_class"] = className
		out.add(el)
	}
}

// extractArrowFunctions records arrow functions bound by a const/let
// declaration ("const foo = () => { ... }").
func (e *tsExtractor) extractArrowFunctions(node *tree_sitter.Node, source []byte, out *FileExtract) {
	exported := isTSExported(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		value := child.ChildByFieldName("value")
		if value == nil || value.Kind() != "arrow_function" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(source)
		start, end := lineRange(child)
		out.add(newElement(name, "function", start, end, exported))
	}
}

func (e *tsExtractor) extractImport(node *tree_sitter.Node, source []byte, out *FileExtract) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	out.addImport(strings.Trim(sourceNode.Utf8Text(source), `"'`))
}

// isTSExported reports whether the declaration sits under an export
// statement.
func isTSExported(node *tree_sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Kind() == "export_statement"
}

// tsHasModifier reports whether a class member carries the given
// accessibility modifier.
func tsHasModifier(node *tree_sitter.Node, source []byte, modifier string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "accessibility_modifier" && child.Utf8Text(source) == modifier {
			return true
		}
	}
	return false
}
