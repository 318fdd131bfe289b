package metadata

import "strings"

// ReturnsAsync marks a method whose completion is reported without a typed result.
const ReturnsAsync = "async"

// Builtin type names that always resolve.
var builtinTypes = map[string]bool{
	"any":     true,
	"boolean": true,
	"number":  true,
	"integer": true,
	"string":  true,
	"object":  true,
	"array":   true,
	"date":    true,
	"null":    true,
}

// IsBuiltin reports whether name is a builtin type.
func IsBuiltin(name string) bool {
	return builtinTypes[name]
}

// TypeKind tags the TypeDef union.
type TypeKind string

const (
	KindEnum   TypeKind = "enum"
	KindStruct TypeKind = "struct"
)

// TypeDef is either an enum (Members) or a struct (Fields), selected by Kind.
type TypeDef struct {
	Name        string
	Kind        TypeKind
	Description string
	Members     []EnumMember
	Fields      []FieldDef
}

// EnumMember is one label/value pair of an enum.
type EnumMember struct {
	Label string
	Value int
}

// FieldDef describes one struct field.
type FieldDef struct {
	Name        string
	TypeRef     string
	IsArray     bool
	Required    bool
	Default     any
	Description string
}

// ParamDef describes one positional method parameter. A parameter with
// HasDefault set is optional.
type ParamDef struct {
	Name        string
	TypeRef     string
	Default     any
	HasDefault  bool
	Description string
}

// Optional reports whether callers may omit the parameter.
func (p ParamDef) Optional() bool {
	return p.HasDefault
}

// MethodDef describes a remote method. Name is fully qualified ("a.b.method").
type MethodDef struct {
	Name        string
	Namespace   string
	Params      []ParamDef
	Returns     string
	Description string
}

// ExpectsReturn reports whether a call waits for a reply.
func (m MethodDef) ExpectsReturn() bool {
	return m.Returns != ""
}

// LocalName is the last dot segment of the method name.
func (m MethodDef) LocalName() string {
	return lastSegment(m.Name)
}

// EventDef describes a server-pushed event.
type EventDef struct {
	Name        string
	Namespace   string
	TypeRef     string
	IsArray     bool
	Description string
}

// LocalName is the last dot segment of the event name.
func (e EventDef) LocalName() string {
	return lastSegment(e.Name)
}

// ParseTypeRef splits "[Name]" into ("Name", true); other refs are returned as-is.
func ParseTypeRef(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if len(ref) >= 2 && ref[0] == '[' && ref[len(ref)-1] == ']' {
		return strings.TrimSpace(ref[1 : len(ref)-1]), true
	}
	return ref, false
}

// NamespaceOf returns everything before the last dot, or "" for root names.
func NamespaceOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

// Ancestors lists a namespace path and all of its ancestors, deepest first:
// "a.b.c" -> ["a.b.c", "a.b", "a"].
func Ancestors(ns string) []string {
	var out []string
	for ns != "" {
		out = append(out, ns)
		ns = NamespaceOf(ns)
	}
	return out
}

// Depth is the number of segments in a namespace path; the root has depth 0.
func Depth(ns string) int {
	if ns == "" {
		return 0
	}
	return strings.Count(ns, ".") + 1
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
