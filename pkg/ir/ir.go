package ir

// IR is the language-agnostic view of a metadata snapshot that emitters render.
// Every slice is already in emission order; emitters never re-sort.
type IR struct {
	Service   IRService
	LocalName string
	// Package is the target package/module name for emitters that need one
	Package string

	// Namespaces are ordered parent-first
	Namespaces []IRNamespace
	Methods    []IRMethod
	Events     []IREvent
	Enums      []IREnum
	Structs    []IRStruct
}

// IRService identifies the described service
type IRService struct {
	Name    string
	Version string
}

// IRNamespace is one container in the proxy's namespace tree
type IRNamespace struct {
	Path   string
	Parent string
	Name   string
	Depth  int
}

// IRMethod is one method stub
type IRMethod struct {
	FullName     string
	Namespace    string
	Name         string
	Params       []IRParam
	Returns      string
	ExpectReturn bool
	Description  string
}

// IRParam is one positional parameter
type IRParam struct {
	Name        string
	TypeRef     string
	IsArray     bool
	Optional    bool
	Default     any
	Description string
}

// IREvent is one server-pushed event
type IREvent struct {
	FullName    string
	Namespace   string
	Name        string
	TypeRef     string
	IsArray     bool
	Description string
}

// IREnum is one enum codec
type IREnum struct {
	Name        string
	Description string
	Members     []IREnumMember
}

// IREnumMember is one label/value pair
type IREnumMember struct {
	Label string
	Value int
}

// IRStruct is one struct type
type IRStruct struct {
	Name        string
	Description string
	Fields      []IRField
}

// IRField is one struct field
type IRField struct {
	Name        string
	TypeRef     string
	IsArray     bool
	Required    bool
	Default     any
	Description string
}

// MethodsIn returns the methods whose parent namespace is path, in order.
func (in IR) MethodsIn(path string) []IRMethod {
	var out []IRMethod
	for _, m := range in.Methods {
		if m.Namespace == path {
			out = append(out, m)
		}
	}
	return out
}

// ChildrenOf returns the direct child namespaces of path, in order.
func (in IR) ChildrenOf(path string) []IRNamespace {
	var out []IRNamespace
	for _, ns := range in.Namespaces {
		if ns.Parent == path {
			out = append(out, ns)
		}
	}
	return out
}
