package typescript

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/blimu-dev/rpc-proxygen/pkg/generator/javascript"
	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
	"github.com/blimu-dev/rpc-proxygen/pkg/utils"
)

//go:embed templates/*
var templatesFS embed.FS

// TypeScriptGenerator implements the Generator interface for TypeScript.
// It emits the declaration file that types the JavaScript proxy.
type TypeScriptGenerator struct{}

// NewTypeScriptGenerator creates a new TypeScript generator
func NewTypeScriptGenerator() *TypeScriptGenerator {
	return &TypeScriptGenerator{}
}

// GetType returns the generator type identifier
func (g *TypeScriptGenerator) GetType() string {
	return "typescript"
}

// Generate renders a .d.ts file for the proxy class described by in
func (g *TypeScriptGenerator) Generate(in ir.IR) (string, error) {
	if !utils.IsJSIdentifier(in.LocalName) || tsReserved[in.LocalName] {
		return "", fmt.Errorf("local name %q is not a valid TypeScript identifier", in.LocalName)
	}

	scope := newTypeScope(in)
	names := javascript.ResolveNames(in)
	root, namespaces := buildNamespaces(in, scope, names)

	funcMap := template.FuncMap{
		"typeName":       scope.typeName,
		"tsType":         scope.tsType,
		"tsString":       tsString,
		"quoteProp":      quoteTSPropertyName,
		"staticProp":     func(name string) string { return quoteTSPropertyName(names.Statics[name]) },
		"enumValueUnion": enumValueUnion,
		"enumLabelUnion": enumLabelUnion,
		"oneLine":        oneLine,
	}

	// Merge sprig functions without shadowing ours
	for k, v := range sprig.TxtFuncMap() {
		if _, taken := funcMap[k]; !taken {
			funcMap[k] = v
		}
	}

	return renderTemplate("proxy.d.ts.gotmpl", funcMap, map[string]any{
		"IR":         in,
		"Root":       root,
		"Namespaces": namespaces,
	})
}

// renderTemplate renders an embedded template into a string
func renderTemplate(templateName string, funcMap template.FuncMap, data map[string]any) (string, error) {
	tmplContent, err := templatesFS.ReadFile("templates/" + templateName)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", templateName, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcMap).Parse(string(tmplContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return out.String(), nil
}
