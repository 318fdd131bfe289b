package javascript

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
	"github.com/blimu-dev/rpc-proxygen/pkg/utils"
)

//go:embed templates/*
var templatesFS embed.FS

// JavaScriptGenerator implements the Generator interface for CommonJS proxies
type JavaScriptGenerator struct{}

// NewJavaScriptGenerator creates a new JavaScript generator
func NewJavaScriptGenerator() *JavaScriptGenerator {
	return &JavaScriptGenerator{}
}

// GetType returns the generator type identifier
func (g *JavaScriptGenerator) GetType() string {
	return "javascript"
}

// Generate renders a single CommonJS module exporting the proxy class
func (g *JavaScriptGenerator) Generate(in ir.IR) (string, error) {
	if !utils.IsJSIdentifier(in.LocalName) {
		return "", fmt.Errorf("local name %q is not a valid JavaScript identifier", in.LocalName)
	}

	funcMap := template.FuncMap{}
	for k, v := range sprig.TxtFuncMap() {
		funcMap[k] = v
	}
	funcMap["jsString"] = jsString
	names := ResolveNames(in)
	funcMap["prop"] = names.Access
	funcMap["static"] = names.Static
	funcMap["rootKeys"] = names.rootKeys
	funcMap["enumPairs"] = enumPairs
	funcMap["eventNames"] = eventNames
	funcMap["oneLine"] = oneLine

	return renderTemplate("proxy.js.gotmpl", funcMap, in)
}

// renderTemplate renders an embedded template into a string
func renderTemplate(templateName string, funcMap template.FuncMap, data any) (string, error) {
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
