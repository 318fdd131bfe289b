package golang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
	"github.com/blimu-dev/rpc-proxygen/pkg/metadata"
	"github.com/blimu-dev/rpc-proxygen/pkg/utils"
)

// promoted are the *proxy.Proxy members a root field must not shadow.
var promoted = []string{
	"Proxy", "Call", "Close", "Done", "On", "AddListener", "RemoveListener",
	"RemoveAllListeners", "ListenerCount", "EventNames", "Emit", "UseHTTP",
	"UseSocket", "Transport", "Mount", "Root", "Namespace", "Method",
}

// nameSet hands out unique identifiers, suffixing repeats with 2, 3, ...
type nameSet map[string]bool

func newNameSet(reserved ...string) nameSet {
	s := make(nameSet)
	for _, r := range reserved {
		s[r] = true
	}
	return s
}

func (s nameSet) claim(base string) string {
	name := base
	for i := 2; s[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	s[name] = true
	return name
}

type fileView struct {
	Package    string
	Local      string
	Service    string
	Version    string
	UsesTime   bool
	Enums      []enumView
	Structs    []structView
	Events     []eventView
	Root       namespaceView
	Namespaces []namespaceView
	Methods    []ir.IRMethod
	Paths      []string
	Assigns    []string
}

type enumView struct {
	Name        string
	Source      string
	Description string
	Members     []enumMemberView
}

type enumMemberView struct {
	Const string
	Label string
	Value int
}

type structView struct {
	Name        string
	Description string
	Fields      []fieldView
}

type fieldView struct {
	Name        string
	Type        string
	Tag         string
	Description string
}

type eventView struct {
	Const       string
	FullName    string
	Type        string
	Description string
}

type namespaceView struct {
	TypeName string
	Path     string
	Fields   []memberView
}

type memberView struct {
	Field       string
	Type        string
	Description string
	Params      string
}

// typeScope resolves registered type names to their declared Go names
type typeScope struct {
	enums   map[string]bool
	structs map[string]string
}

// goType converts a type reference to a Go type expression
func (s typeScope) goType(ref string, isArray bool) string {
	var t string
	switch ref {
	case "", "any", "null":
		t = "any"
	case "boolean":
		t = "bool"
	case "number":
		t = "float64"
	case "integer":
		t = "int64"
	case "string":
		t = "string"
	case "date":
		t = "time.Time"
	case "object":
		t = "map[string]any"
	case "array":
		t = "[]any"
	default:
		if s.enums[ref] {
			t = "int"
		} else if name, ok := s.structs[ref]; ok {
			t = "*" + name
		} else {
			t = "any"
		}
	}
	if isArray {
		t = "[]" + t
	}
	return t
}

// buildView resolves every identifier the template prints
func buildView(in ir.IR, pkg string) fileView {
	local := utils.GoExported(in.LocalName)
	globals := newNameSet(local, "New")
	view := fileView{
		Package: pkg,
		Local:   local,
		Service: in.Service.Name,
		Version: in.Service.Version,
		Methods: in.Methods,
	}

	scope := typeScope{enums: make(map[string]bool), structs: make(map[string]string)}
	for _, e := range in.Enums {
		scope.enums[e.Name] = true
		view.Enums = append(view.Enums, enumView{
			Name:        globals.claim(utils.GoExported(e.Name)),
			Source:      e.Name,
			Description: e.Description,
		})
	}
	for _, st := range in.Structs {
		scope.structs[st.Name] = globals.claim(utils.GoExported(st.Name))
	}
	for i, e := range in.Enums {
		for _, m := range e.Members {
			view.Enums[i].Members = append(view.Enums[i].Members, enumMemberView{
				Const: globals.claim(view.Enums[i].Name + utils.GoExported(m.Label)),
				Label: m.Label,
				Value: m.Value,
			})
		}
	}

	for _, st := range in.Structs {
		sv := structView{Name: scope.structs[st.Name], Description: st.Description}
		fields := newNameSet()
		for _, f := range st.Fields {
			fv := fieldView{
				Name:        fields.claim(utils.GoExported(f.Name)),
				Type:        scope.goType(f.TypeRef, f.IsArray),
				Tag:         jsonTag(f.Name, !f.Required),
				Description: f.Description,
			}
			if strings.Contains(fv.Type, "time.Time") {
				view.UsesTime = true
			}
			sv.Fields = append(sv.Fields, fv)
		}
		view.Structs = append(view.Structs, sv)
	}

	for _, e := range in.Events {
		view.Events = append(view.Events, eventView{
			Const:       globals.claim("Event" + utils.GoExported(strings.ReplaceAll(e.FullName, ".", "_"))),
			FullName:    e.FullName,
			Type:        scope.goType(e.TypeRef, e.IsArray),
			Description: e.Description,
		})
	}

	view.Root, view.Namespaces, view.Assigns = buildNamespaces(in, scope)
	for _, ns := range in.Namespaces {
		view.Paths = append(view.Paths, ns.Path)
	}
	return view
}

// buildNamespaces lays out one struct per namespace and the statements that
// populate them, parent-first so every assignment target already exists.
func buildNamespaces(in ir.IR, scope typeScope) (namespaceView, []namespaceView, []string) {
	types := newNameSet()
	typeNames := make(map[string]string)
	for _, ns := range in.Namespaces {
		typeNames[ns.Path] = types.claim(utils.GoUnexported(strings.ReplaceAll(ns.Path, ".", "_")) + "Namespace")
	}

	exprs := map[string]string{"": "c"}
	var assigns []string
	view := func(path string, fields nameSet) namespaceView {
		nv := namespaceView{TypeName: typeNames[path], Path: path}
		for _, child := range in.ChildrenOf(path) {
			field := fields.claim(utils.GoExported(child.Name))
			exprs[child.Path] = exprs[path] + "." + field
			nv.Fields = append(nv.Fields, memberView{Field: field, Type: "*" + typeNames[child.Path]})
		}
		for _, m := range in.MethodsIn(path) {
			field := fields.claim(utils.GoExported(m.Name))
			nv.Fields = append(nv.Fields, memberView{
				Field:       field,
				Type:        "proxy.MethodFunc",
				Description: m.Description,
				Params:      paramList(scope, m),
			})
			assigns = append(assigns, fmt.Sprintf("%s.%s = p.Method(%s)", exprs[path], field, strconv.Quote(m.FullName)))
		}
		return nv
	}

	root := view("", newNameSet(promoted...))
	var nested []namespaceView
	for _, ns := range in.Namespaces {
		nested = append(nested, view(ns.Path, newNameSet()))
	}

	// namespaces are allocated before any method is bound
	allocs := make([]string, 0, len(in.Namespaces))
	for _, ns := range in.Namespaces {
		allocs = append(allocs, fmt.Sprintf("%s = &%s{}", exprs[ns.Path], typeNames[ns.Path]))
	}
	return root, nested, append(allocs, assigns...)
}

// paramList renders a method's declared parameters for its doc comment
func paramList(scope typeScope, m ir.IRMethod) string {
	parts := make([]string, 0, len(m.Params))
	for i, p := range m.Params {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		part := name + " " + scope.goType(p.TypeRef, p.IsArray)
		if p.Optional {
			part += " (optional)"
		}
		parts = append(parts, part)
	}
	result := ""
	switch m.Returns {
	case "":
	case metadata.ReturnsAsync:
		result = " -> async"
	default:
		result = " -> " + scope.goType(m.Returns, false)
	}
	if len(parts) == 0 && result == "" {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")" + result
}

// jsonTag renders a struct tag as a raw string literal when it can
func jsonTag(name string, omitEmpty bool) string {
	tag := name
	if omitEmpty {
		tag += ",omitempty"
	}
	tag = "json:" + strconv.Quote(tag)
	if strings.Contains(tag, "`") {
		return strconv.Quote(tag)
	}
	return "`" + tag + "`"
}

// formatGoComment formats a string as a proper Go comment, handling multiline descriptions
func formatGoComment(s string) string {
	if s == "" {
		return ""
	}

	lines := strings.Split(strings.TrimSpace(s), "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			result = append(result, "//")
		} else {
			result = append(result, "// "+line)
		}
	}
	return strings.Join(result, "\n")
}
