package typescript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
)

func renderIR() ir.IR {
	return ir.IR{
		Service:   ir.IRService{Name: "render", Version: "2.1.0"},
		LocalName: "Tester",
		Namespaces: []ir.IRNamespace{
			{Path: "vray", Name: "vray", Depth: 1},
			{Path: "vray.scene", Parent: "vray", Name: "scene", Depth: 2},
		},
		Methods: []ir.IRMethod{
			{FullName: "vray.start", Namespace: "vray", Name: "start", Returns: "async", ExpectReturn: true},
			{FullName: "vray.scene.load", Namespace: "vray.scene", Name: "load", Returns: "boolean", ExpectReturn: true,
				Params: []ir.IRParam{{Name: "path", TypeRef: "string"}, {Name: "mode", TypeRef: "Mode", Optional: true}}},
			{FullName: "ping", Name: "ping", Description: "Liveness probe."},
		},
		Events: []ir.IREvent{
			{FullName: "vray.progress", Namespace: "vray", Name: "progress", TypeRef: "Progress"},
		},
		Enums: []ir.IREnum{
			{Name: "Mode", Members: []ir.IREnumMember{{Label: "A", Value: 0}, {Label: "B", Value: 1}}},
		},
		Structs: []ir.IRStruct{
			{Name: "Progress", Fields: []ir.IRField{
				{Name: "done", TypeRef: "number", Required: true},
				{Name: "frames", TypeRef: "integer", IsArray: true},
			}},
		},
	}
}

func TestGenerate_Declarations(t *testing.T) {
	out, err := NewTypeScriptGenerator().Generate(renderIR())
	require.NoError(t, err)

	assert.Contains(t, out, "// render 2.1.0\n")
	assert.Contains(t, out, "declare namespace Tester {")
	assert.Contains(t, out, "  type Mode = 0 | 1;")
	assert.Contains(t, out, `    (label: "A" | "B"): Mode;`)
	assert.Contains(t, out, "    readonly A: 0;\n    readonly B: 1;")
	assert.Contains(t, out, "  interface Progress {\n    done: number;\n    frames?: number[];\n  }")
	assert.Contains(t, out, "  interface VrayNamespace {\n    readonly scene: VraySceneNamespace;\n    start(callback?: Tester.Callback<unknown>): void;\n  }")
	assert.Contains(t, out, "    load(path: string, callback?: Tester.Callback<boolean>): void;\n    load(path: string, mode: Tester.Mode, callback?: Tester.Callback<boolean>): void;")
	assert.Contains(t, out, "declare class Tester {")
	assert.Contains(t, out, "  static readonly Mode: Tester.ModeCodec;")
	assert.Contains(t, out, "  readonly vray: Tester.VrayNamespace;")
	assert.Contains(t, out, "  /** Liveness probe. */\n  ping(callback?: Tester.Callback<void>): void;")
	assert.Contains(t, out, `  on(event: "vray.progress", listener: (data: Tester.Progress) => void): this;`)
	assert.Contains(t, out, "export = Tester;\n")
}

func TestGenerate_ReservedNamesMatchJavaScript(t *testing.T) {
	in := renderIR()
	in.Methods = append(in.Methods, ir.IRMethod{FullName: "close", Name: "close"})
	in.Enums = append(in.Enums, ir.IREnum{Name: "prototype", Members: []ir.IREnumMember{{Label: "X", Value: 1}}})

	out, err := NewTypeScriptGenerator().Generate(in)
	require.NoError(t, err)

	assert.Contains(t, out, "  close2(callback?: Tester.Callback<void>): void;")
	assert.Contains(t, out, "  close(): void;")
	assert.Contains(t, out, "  static readonly prototype2: Tester.PrototypeCodec;")
	assert.Contains(t, out, "  static readonly Mode: Tester.ModeCodec;")
}

func TestGenerate_ParentInterfacesFirst(t *testing.T) {
	out, err := NewTypeScriptGenerator().Generate(renderIR())
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "interface VrayNamespace"), strings.Index(out, "interface VraySceneNamespace"))
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewTypeScriptGenerator()
	first, err := g.Generate(renderIR())
	require.NoError(t, err)
	second, err := g.Generate(renderIR())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_InvalidLocalName(t *testing.T) {
	in := renderIR()
	in.LocalName = "class"
	_, err := NewTypeScriptGenerator().Generate(in)
	assert.Error(t, err)
}

func TestTSType(t *testing.T) {
	scope := newTypeScope(renderIR())
	tests := []struct {
		ref      string
		isArray  bool
		expected string
	}{
		{"", false, "unknown"},
		{"any", false, "unknown"},
		{"string", false, "string"},
		{"integer", true, "number[]"},
		{"date", true, "(Date | string)[]"},
		{"object", false, "Record<string, unknown>"},
		{"[Mode]", false, "Tester.Mode[]"},
		{"Progress", false, "Tester.Progress"},
		{"Missing", false, "unknown"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, scope.tsType(test.ref, test.isArray), test.ref)
	}
}

func TestParamName(t *testing.T) {
	assert.Equal(t, "path", paramName("path", 0))
	assert.Equal(t, "arg1", paramName("default", 1))
	assert.Equal(t, "arg2", paramName("my-arg", 2))
}
