package javascript

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
)

func testerIR() ir.IR {
	return ir.IR{
		Service:   ir.IRService{Name: "render", Version: "1.0.0"},
		LocalName: "Tester",
		Namespaces: []ir.IRNamespace{
			{Path: "vray", Name: "vray", Depth: 1},
		},
		Methods: []ir.IRMethod{
			{FullName: "vray.start", Namespace: "vray", Name: "start", Returns: "async", ExpectReturn: true},
		},
		Enums: []ir.IREnum{
			{Name: "Mode", Members: []ir.IREnumMember{{Label: "A", Value: 0}, {Label: "B", Value: 1}}},
		},
	}
}

func TestGenerate_TesterScenario(t *testing.T) {
	out, err := NewJavaScriptGenerator().Generate(testerIR())
	require.NoError(t, err)

	assert.Contains(t, out, "// Code generated by proxygen. DO NOT EDIT.\n// render 1.0.0\n")
	assert.Contains(t, out, "class Tester {")
	assert.Contains(t, out, "    this.vray = Object.create(null);\n")
	assert.Contains(t, out, "    this.vray.start = function (...args) {\n      this.#call(\"vray.start\", args, 0, true);\n    };\n")
	assert.Contains(t, out, "for (const key of [\"vray\"])")
	assert.Contains(t, out, "\nTester.Mode = createEnum([[\"A\", 0], [\"B\", 1]]);\n")
	assert.True(t, strings.HasSuffix(out, "module.exports = Tester;\n"))
	assert.NotContains(t, out, "Tester.events")
}

func TestGenerate_ControlCalls(t *testing.T) {
	out, err := NewJavaScriptGenerator().Generate(testerIR())
	require.NoError(t, err)

	assert.Contains(t, out, "const CONTROL_TRANSPORT = 'socket';")
	assert.Contains(t, out, "this.#control('rpc.on', name);")
	assert.Contains(t, out, "this.#control('rpc.off', name);")
	assert.Contains(t, out, "transport: CONTROL_TRANSPORT")
	assert.Contains(t, out, "this.#transport = 'http';")
}

func TestGenerate_FireAndForgetAndParams(t *testing.T) {
	in := ir.IR{
		LocalName: "Proxy",
		Methods: []ir.IRMethod{
			{FullName: "log", Name: "log", Params: []ir.IRParam{{Name: "msg"}, {Name: "level", Optional: true}}},
		},
	}
	out, err := NewJavaScriptGenerator().Generate(in)
	require.NoError(t, err)

	assert.Contains(t, out, "this.log = function (...args) {\n      this.#call(\"log\", args, 2, false);")
	assert.Contains(t, out, "for (const key of [\"log\"])")
	assert.Contains(t, out, "// service\n")
}

func TestGenerate_NonIdentifierNames(t *testing.T) {
	in := ir.IR{
		LocalName: "Proxy",
		Namespaces: []ir.IRNamespace{
			{Path: "my-ns", Name: "my-ns", Depth: 1},
		},
		Methods: []ir.IRMethod{
			{FullName: "my-ns.do it", Namespace: "my-ns", Name: "do it"},
		},
		Enums: []ir.IREnum{
			{Name: "Render Mode", Members: []ir.IREnumMember{{Label: "fast", Value: 3}}},
		},
	}
	out, err := NewJavaScriptGenerator().Generate(in)
	require.NoError(t, err)

	assert.Contains(t, out, `this["my-ns"] = Object.create(null);`)
	assert.Contains(t, out, `this["my-ns"]["do it"] = function`)
	assert.Contains(t, out, `Proxy["Render Mode"] = createEnum([["fast", 3]]);`)
}

func TestGenerate_EventsAndDescriptions(t *testing.T) {
	in := testerIR()
	in.Methods[0].Description = "Starts\n  a render."
	in.Events = []ir.IREvent{{FullName: "vray.progress", Namespace: "vray", Name: "progress"}}

	out, err := NewJavaScriptGenerator().Generate(in)
	require.NoError(t, err)

	assert.Contains(t, out, "    // Starts a render.\n    this.vray.start")
	assert.Contains(t, out, `Tester.events = Object.freeze(["vray.progress"]);`)
}

func TestGenerate_InvalidLocalName(t *testing.T) {
	in := testerIR()
	in.LocalName = "not valid"
	_, err := NewJavaScriptGenerator().Generate(in)
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	var names Names
	assert.Equal(t, "this.a.b", names.Access("this", "a.b"))
	assert.Equal(t, `this["1a"].b`, names.Access("this", "1a.b"))
	assert.Equal(t, `"say \"hi\""`, jsString(`say "hi"`))
	assert.Equal(t, "one two", oneLine(" one\n\ttwo "))
	assert.Equal(t, "[]", names.rootKeys(ir.IR{}))
}

func TestResolveNames(t *testing.T) {
	in := ir.IR{
		LocalName: "Tester",
		Namespaces: []ir.IRNamespace{
			{Path: "on", Name: "on", Depth: 1},
			{Path: "vray", Name: "vray", Depth: 1},
		},
		Methods: []ir.IRMethod{
			{FullName: "close", Name: "close"},
			{FullName: "close2", Name: "close2"},
			{FullName: "__proto__", Name: "__proto__"},
			{FullName: "start", Name: "start"},
			{FullName: "on.close", Namespace: "on", Name: "close"},
		},
		Enums: []ir.IREnum{{Name: "prototype"}, {Name: "events"}, {Name: "Mode"}, {Name: "name"}},
	}
	names := ResolveNames(in)

	assert.Equal(t, map[string]string{
		"on":        "on2",
		"vray":      "vray",
		"close":     "close3",
		"close2":    "close2",
		"__proto__": "__proto__2",
		"start":     "start",
	}, names.Root)
	assert.Equal(t, map[string]string{
		"prototype": "prototype2",
		"events":    "events2",
		"Mode":      "Mode",
		"name":      "name2",
	}, names.Statics)

	assert.Equal(t, "this.on2.close", names.Access("this", "on.close"))
	assert.Equal(t, "this.vray.start", names.Access("this", "vray.start"))
	assert.Equal(t, "Tester.prototype2", names.Static("Tester", "prototype"))
}

func TestGenerate_ReservedNames(t *testing.T) {
	in := testerIR()
	in.Methods = append(in.Methods,
		ir.IRMethod{FullName: "close", Name: "close"},
		ir.IRMethod{FullName: "useHTTP", Name: "useHTTP", Params: []ir.IRParam{{Name: "x"}}},
	)
	in.Enums = append(in.Enums, ir.IREnum{Name: "prototype", Members: []ir.IREnumMember{{Label: "A", Value: 0}}})
	in.Events = []ir.IREvent{{FullName: "vray.progress", Namespace: "vray", Name: "progress"}}

	out, err := NewJavaScriptGenerator().Generate(in)
	require.NoError(t, err)

	assert.Contains(t, out, "    this.close2 = function (...args) {\n      this.#call(\"close\", args, 0, false);")
	assert.Contains(t, out, "    this.useHTTP2 = function (...args) {\n      this.#call(\"useHTTP\", args, 1, false);")
	assert.Contains(t, out, `for (const key of ["vray", "close2", "useHTTP2"])`)
	assert.Contains(t, out, "\nTester.prototype2 = createEnum([[\"A\", 0]]);\n")
	assert.Contains(t, out, "\n  close() {\n")
	assert.NotContains(t, out, "this.close =")
	assert.NotContains(t, out, "Tester.prototype =")
}

// nestedIR builds a tree where every generated name nests under the previous one.
func nestedIR(segments []string) ir.IR {
	in := ir.IR{LocalName: "Proxy"}
	path := ""
	for i, s := range segments {
		name := fmt.Sprintf("%s%d", s, i)
		parent := path
		if path == "" {
			path = name
		} else {
			path = path + "." + name
		}
		in.Namespaces = append(in.Namespaces, ir.IRNamespace{Path: path, Parent: parent, Name: name, Depth: i + 1})
		in.Methods = append(in.Methods, ir.IRMethod{FullName: path + ".call", Namespace: path, Name: "call"})
	}
	return in
}

func TestGenerateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("output is byte-identical across runs", prop.ForAll(
		func(segments []string) bool {
			g := NewJavaScriptGenerator()
			first, err1 := g.Generate(nestedIR(segments))
			second, err2 := g.Generate(nestedIR(segments))
			return err1 == nil && err2 == nil && first == second
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("parent containers precede their children", prop.ForAll(
		func(segments []string) bool {
			in := nestedIR(segments)
			out, err := NewJavaScriptGenerator().Generate(in)
			if err != nil {
				return false
			}
			last := -1
			for _, ns := range in.Namespaces {
				idx := strings.Index(out, Names{}.Access("this", ns.Path)+" = Object.create(null);")
				if idx <= last {
					return false
				}
				last = idx
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
