package typescript

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blimu-dev/rpc-proxygen/pkg/generator/javascript"
	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
	"github.com/blimu-dev/rpc-proxygen/pkg/metadata"
	"github.com/blimu-dev/rpc-proxygen/pkg/utils"
)

var tsReserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true, "await": true,
}

// namespaceView is one interface describing a namespace container
type namespaceView struct {
	Path     string
	TypeName string
	Children []childView
	Methods  []methodView
}

type childView struct {
	Prop     string
	TypeName string
}

type methodView struct {
	Prop        string
	Description string
	Overloads   []string
}

// typeScope resolves registered type names to their declared TypeScript names
type typeScope struct {
	local string
	names map[string]string
}

func newTypeScope(in ir.IR) typeScope {
	scope := typeScope{local: in.LocalName, names: make(map[string]string)}
	used := make(map[string]bool)
	add := func(name string) {
		tsName := utils.GoExported(name)
		for i := 2; used[tsName]; i++ {
			tsName = fmt.Sprintf("%s%d", utils.GoExported(name), i)
		}
		used[tsName] = true
		scope.names[name] = tsName
	}
	for _, e := range in.Enums {
		add(e.Name)
	}
	for _, s := range in.Structs {
		add(s.Name)
	}
	return scope
}

// typeName returns the declaration name for a registered type
func (s typeScope) typeName(name string) string {
	return s.names[name]
}

// tsType converts a type reference to a TypeScript type string
func (s typeScope) tsType(ref string, isArray bool) string {
	if inner, ok := metadata.ParseTypeRef(ref); ok {
		ref, isArray = inner, true
	}
	var t string
	switch ref {
	case "", "any":
		t = "unknown"
	case "boolean":
		t = "boolean"
	case "number", "integer":
		t = "number"
	case "string":
		t = "string"
	case "date":
		t = "Date | string"
	case "null":
		t = "null"
	case "object":
		t = "Record<string, unknown>"
	case "array":
		t = "unknown[]"
	default:
		if name, ok := s.names[ref]; ok {
			t = s.local + "." + name
		} else {
			t = "unknown"
		}
	}
	if isArray {
		if strings.Contains(t, " | ") {
			t = "(" + t + ")"
		}
		t += "[]"
	}
	return t
}

// resultType is the callback payload type for a method
func (s typeScope) resultType(m ir.IRMethod) string {
	switch m.Returns {
	case "":
		return "void"
	case metadata.ReturnsAsync:
		return "unknown"
	default:
		return s.tsType(m.Returns, false)
	}
}

// paramName returns a usable parameter identifier, falling back to argN
func paramName(name string, index int) string {
	if utils.IsJSIdentifier(name) && !tsReserved[name] {
		return name
	}
	return fmt.Sprintf("arg%d", index)
}

// buildOverloads renders one signature per accepted arity. Optional trailing
// parameters get their own overloads so the callback can follow any prefix.
func (s typeScope) buildOverloads(m ir.IRMethod) []string {
	required := 0
	for i, p := range m.Params {
		if !p.Optional {
			required = i + 1
		}
	}
	callback := fmt.Sprintf("callback?: %s.Callback<%s>", s.local, s.resultType(m))

	var overloads []string
	for arity := required; arity <= len(m.Params); arity++ {
		parts := make([]string, 0, arity+1)
		for i, p := range m.Params[:arity] {
			parts = append(parts, fmt.Sprintf("%s: %s", paramName(p.Name, i), s.tsType(p.TypeRef, p.IsArray)))
		}
		parts = append(parts, callback)
		overloads = append(overloads, "("+strings.Join(parts, ", ")+"): void")
	}
	return overloads
}

// buildNamespaces returns the root view and one view per namespace, parent-first
// Root members carry the property names the JavaScript class gives them.
func buildNamespaces(in ir.IR, scope typeScope, names javascript.Names) (namespaceView, []namespaceView) {
	typeNames := make(map[string]string)
	used := make(map[string]bool)
	for _, ns := range in.Namespaces {
		base := utils.GoExported(strings.ReplaceAll(ns.Path, ".", "_")) + "Namespace"
		name := base
		for i := 2; used[name]; i++ {
			name = fmt.Sprintf("%s%d", base, i)
		}
		used[name] = true
		typeNames[ns.Path] = name
	}

	view := func(path string) namespaceView {
		prop := func(name string) string {
			if path == "" {
				name = names.Root[name]
			}
			return quoteTSPropertyName(name)
		}
		v := namespaceView{Path: path, TypeName: typeNames[path]}
		for _, child := range in.ChildrenOf(path) {
			v.Children = append(v.Children, childView{Prop: prop(child.Name), TypeName: typeNames[child.Path]})
		}
		for _, m := range in.MethodsIn(path) {
			v.Methods = append(v.Methods, methodView{
				Prop:        prop(m.Name),
				Description: m.Description,
				Overloads:   scope.buildOverloads(m),
			})
		}
		return v
	}

	root := view("")
	var nested []namespaceView
	for _, ns := range in.Namespaces {
		nested = append(nested, view(ns.Path))
	}
	return root, nested
}

// enumValueUnion renders the numeric union of an enum's values
func enumValueUnion(e ir.IREnum) string {
	if len(e.Members) == 0 {
		return "never"
	}
	vals := make([]string, 0, len(e.Members))
	for _, m := range e.Members {
		vals = append(vals, fmt.Sprintf("%d", m.Value))
	}
	return strings.Join(vals, " | ")
}

// enumLabelUnion renders the string-literal union of an enum's labels
func enumLabelUnion(e ir.IREnum) string {
	if len(e.Members) == 0 {
		return "never"
	}
	labels := make([]string, 0, len(e.Members))
	for _, m := range e.Members {
		labels = append(labels, tsString(m.Label))
	}
	return strings.Join(labels, " | ")
}

func tsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// quoteTSPropertyName quotes property names that are not plain identifiers
func quoteTSPropertyName(name string) string {
	if utils.IsJSIdentifier(name) {
		return name
	}
	return tsString(name)
}

// oneLine collapses a description onto a single comment line
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
