package graph

// NodeKind classifies nodes in the relationship graph.
type NodeKind string

const (
	KindFile      NodeKind = "file"
	KindDirectory NodeKind = "directory"
	KindFunction  NodeKind = "function"
	KindClass     NodeKind = "class"
	KindMethod    NodeKind = "method"
	KindFeature   NodeKind = "feature"
)

// NodeKinds lists every node kind, in declaration order.
var NodeKinds = []NodeKind{
	KindFile, KindDirectory, KindFunction, KindClass, KindMethod, KindFeature,
}

// Deterministic node id constructors. Repeated scans of the same tree must
// produce identical ids, so updates can be expressed as remove-then-readd.

// FileID returns the node id for a file at the given absolute path.
func FileID(path string) string { return "file:" + path }

// DirID returns the node id for a directory at the given absolute path.
func DirID(path string) string { return "dir:" + path }

// FunctionID returns the node id for a function scoped by its file path.
func FunctionID(filePath, name string) string { return "func:" + filePath + ":" + name }

// ClassID returns the node id for a class scoped by its file path.
func ClassID(filePath, name string) string { return "class:" + filePath + ":" + name }

// MethodID returns the node id for a method scoped by its file path.
func MethodID(filePath, name string) string { return "method:" + filePath + ":" + name }

// FeatureID returns the node id for a virtual feature grouping.
func FeatureID(name string) string { return "feature:" + name }

// TypeInfo describes a parameter, property or return type. Subtypes carry
// nested generic detail and survive only DETAILED projections.
type TypeInfo struct {
	Name       string     `json:"name"`
	IsOptional bool       `json:"is_optional,omitempty"`
	IsList     bool       `json:"is_list,omitempty"`
	Subtypes   []TypeInfo `json:"subtypes,omitempty"`
}

// ParameterInfo describes one ordered function or method parameter.
type ParameterInfo struct {
	Name         string    `json:"name"`
	Type         *TypeInfo `json:"type,omitempty"`
	DefaultValue string    `json:"default_value,omitempty"`
	IsOptional   bool      `json:"is_optional,omitempty"`
	IsVariadic   bool      `json:"is_variadic,omitempty"`
}

// PropertyInfo describes one ordered class property.
type PropertyInfo struct {
	Name         string    `json:"name"`
	Type         *TypeInfo `json:"type,omitempty"`
	Visibility   string    `json:"visibility,omitempty"`
	IsStatic     bool      `json:"is_static,omitempty"`
	DefaultValue string    `json:"default_value,omitempty"`
}

// Node is the closed set of entities the graph stores. Concrete types:
// FileNode, DirectoryNode, FunctionNode, ClassNode, MethodNode, FeatureNode.
type Node interface {
	NodeID() string
	NodeKind() NodeKind
	Metadata() map[string]any

	// Project returns a new copy reduced to the given detail level. The
	// copy never shares mutable state with the receiver.
	Project(level DetailLevel) Node

	node() // marks the variant set as closed
}

// nodeBase carries the fields every node kind shares.
type nodeBase struct {
	ID   string         `json:"id"`
	Type NodeKind       `json:"type"`
	Meta map[string]any `json:"metadata,omitempty"`
}

func (b nodeBase) NodeID() string           { return b.ID }
func (b nodeBase) NodeKind() NodeKind       { return b.Type }
func (b nodeBase) Metadata() map[string]any { return b.Meta }

// project reduces the shared fields to the given level.
func (b nodeBase) project(level DetailLevel) nodeBase {
	out := nodeBase{ID: b.ID, Type: b.Type}
	switch level {
	case DetailMinimal:
		out.Meta = map[string]any{}
	case DetailStandard:
		out.Meta = filterMetadata(b.Meta, nodeMetadataAllowList)
	default:
		out.Meta = cloneMetadata(b.Meta)
	}
	return out
}

// FileNode represents a source file.
type FileNode struct {
	nodeBase
	Path      string `json:"path"`
	Extension string `json:"extension"`
}

// NewFileNode creates a file node. Pass FileID(path) as the id for the
// canonical identity scheme.
func NewFileNode(id, path, extension string, meta map[string]any) *FileNode {
	return &FileNode{
		nodeBase:  nodeBase{ID: id, Type: KindFile, Meta: cloneMetadata(meta)},
		Path:      path,
		Extension: extension,
	}
}

func (n *FileNode) node() {}

func (n *FileNode) Project(level DetailLevel) Node {
	return &FileNode{nodeBase: n.nodeBase.project(level), Path: n.Path, Extension: n.Extension}
}

// DirectoryNode represents a directory.
type DirectoryNode struct {
	nodeBase
	Path string `json:"path"`
}

// NewDirectoryNode creates a directory node. Pass DirID(path) as the id.
func NewDirectoryNode(id, path string, meta map[string]any) *DirectoryNode {
	return &DirectoryNode{
		nodeBase: nodeBase{ID: id, Type: KindDirectory, Meta: cloneMetadata(meta)},
		Path:     path,
	}
}

func (n *DirectoryNode) node() {}

func (n *DirectoryNode) Project(level DetailLevel) Node {
	return &DirectoryNode{nodeBase: n.nodeBase.project(level), Path: n.Path}
}

// FunctionNode represents a free function.
type FunctionNode struct {
	nodeBase
	Name       string          `json:"name"`
	Parameters []ParameterInfo `json:"parameters,omitempty"`
	ReturnType *TypeInfo       `json:"return_type,omitempty"`
	LineStart  int             `json:"line_start,omitempty"`
	LineEnd    int             `json:"line_end,omitempty"`
}

// NewFunctionNode creates a function node. Pass FunctionID(file, name) as the id.
func NewFunctionNode(id, name string, params []ParameterInfo, returnType *TypeInfo, lineStart, lineEnd int, meta map[string]any) *FunctionNode {
	return &FunctionNode{
		nodeBase:   nodeBase{ID: id, Type: KindFunction, Meta: cloneMetadata(meta)},
		Name:       name,
		Parameters: cloneParameters(params, DetailDetailed),
		ReturnType: cloneType(returnType, DetailDetailed),
		LineStart:  lineStart,
		LineEnd:    lineEnd,
	}
}

func (n *FunctionNode) node() {}

func (n *FunctionNode) Project(level DetailLevel) Node {
	out := &FunctionNode{
		nodeBase:  n.nodeBase.project(level),
		Name:      n.Name,
		LineStart: n.LineStart,
		LineEnd:   n.LineEnd,
	}
	if level != DetailMinimal {
		out.Parameters = cloneParameters(n.Parameters, level)
		out.ReturnType = cloneType(n.ReturnType, level)
	}
	return out
}

// ClassNode represents a class or type definition.
type ClassNode struct {
	nodeBase
	Name       string         `json:"name"`
	Properties []PropertyInfo `json:"properties,omitempty"`
	LineStart  int            `json:"line_start,omitempty"`
	LineEnd    int            `json:"line_end,omitempty"`
}

// NewClassNode creates a class node. Pass ClassID(file, name) as the id.
func NewClassNode(id, name string, properties []PropertyInfo, lineStart, lineEnd int, meta map[string]any) *ClassNode {
	return &ClassNode{
		nodeBase:   nodeBase{ID: id, Type: KindClass, Meta: cloneMetadata(meta)},
		Name:       name,
		Properties: cloneProperties(properties, DetailDetailed),
		LineStart:  lineStart,
		LineEnd:    lineEnd,
	}
}

func (n *ClassNode) node() {}

func (n *ClassNode) Project(level DetailLevel) Node {
	out := &ClassNode{
		nodeBase:  n.nodeBase.project(level),
		Name:      n.Name,
		LineStart: n.LineStart,
		LineEnd:   n.LineEnd,
	}
	if level != DetailMinimal {
		out.Properties = cloneProperties(n.Properties, level)
	}
	return out
}

// MethodNode represents a method bound to a parent class.
type MethodNode struct {
	nodeBase
	Name        string          `json:"name"`
	Parameters  []ParameterInfo `json:"parameters,omitempty"`
	ReturnType  *TypeInfo       `json:"return_type,omitempty"`
	ParentClass string          `json:"parent_class,omitempty"`
	LineStart   int             `json:"line_start,omitempty"`
	LineEnd     int             `json:"line_end,omitempty"`
}

// NewMethodNode creates a method node. Pass MethodID(file, name) as the id
// and the parent class node id as parentClass.
func NewMethodNode(id, name string, params []ParameterInfo, returnType *TypeInfo, parentClass string, lineStart, lineEnd int, meta map[string]any) *MethodNode {
	return &MethodNode{
		nodeBase:    nodeBase{ID: id, Type: KindMethod, Meta: cloneMetadata(meta)},
		Name:        name,
		Parameters:  cloneParameters(params, DetailDetailed),
		ReturnType:  cloneType(returnType, DetailDetailed),
		ParentClass: parentClass,
		LineStart:   lineStart,
		LineEnd:     lineEnd,
	}
}

func (n *MethodNode) node() {}

func (n *MethodNode) Project(level DetailLevel) Node {
	out := &MethodNode{
		nodeBase:    n.nodeBase.project(level),
		Name:        n.Name,
		ParentClass: n.ParentClass,
		LineStart:   n.LineStart,
		LineEnd:     n.LineEnd,
	}
	if level != DetailMinimal {
		out.Parameters = cloneParameters(n.Parameters, level)
		out.ReturnType = cloneType(n.ReturnType, level)
	}
	return out
}

// FeatureNode represents a virtual feature grouping not tied to a file.
type FeatureNode struct {
	nodeBase
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewFeatureNode creates a feature node. Pass FeatureID(name) as the id.
func NewFeatureNode(id, name, description string, meta map[string]any) *FeatureNode {
	return &FeatureNode{
		nodeBase:    nodeBase{ID: id, Type: KindFeature, Meta: cloneMetadata(meta)},
		Name:        name,
		Description: description,
	}
}

func (n *FeatureNode) node() {}

func (n *FeatureNode) Project(level DetailLevel) Node {
	out := &FeatureNode{nodeBase: n.nodeBase.project(level), Name: n.Name}
	if level != DetailMinimal {
		out.Description = n.Description
	}
	return out
}

// cloneParameters copies parameters at the given level. STANDARD collapses
// each entry to its name and simplified type; DETAILED keeps everything.
func cloneParameters(params []ParameterInfo, level DetailLevel) []ParameterInfo {
	if params == nil {
		return nil
	}
	out := make([]ParameterInfo, len(params))
	for i, p := range params {
		if level == DetailStandard {
			out[i] = ParameterInfo{Name: p.Name, Type: cloneType(p.Type, level)}
			continue
		}
		out[i] = ParameterInfo{
			Name:         p.Name,
			Type:         cloneType(p.Type, level),
			DefaultValue: p.DefaultValue,
			IsOptional:   p.IsOptional,
			IsVariadic:   p.IsVariadic,
		}
	}
	return out
}

// cloneProperties copies class properties at the given level.
func cloneProperties(props []PropertyInfo, level DetailLevel) []PropertyInfo {
	if props == nil {
		return nil
	}
	out := make([]PropertyInfo, len(props))
	for i, p := range props {
		if level == DetailStandard {
			out[i] = PropertyInfo{Name: p.Name, Type: cloneType(p.Type, level)}
			continue
		}
		out[i] = PropertyInfo{
			Name:         p.Name,
			Type:         cloneType(p.Type, level),
			Visibility:   p.Visibility,
			IsStatic:     p.IsStatic,
			DefaultValue: p.DefaultValue,
		}
	}
	return out
}

// cloneType copies a type descriptor. STANDARD drops nested subtype detail,
// keeping only the simplified type name.
func cloneType(t *TypeInfo, level DetailLevel) *TypeInfo {
	if t == nil {
		return nil
	}
	if level == DetailStandard {
		return &TypeInfo{Name: t.Name}
	}
	out := &TypeInfo{Name: t.Name, IsOptional: t.IsOptional, IsList: t.IsList}
	if len(t.Subtypes) > 0 {
		out.Subtypes = make([]TypeInfo, len(t.Subtypes))
		for i := range t.Subtypes {
			out.Subtypes[i] = *cloneType(&t.Subtypes[i], level)
		}
	}
	return out
}
