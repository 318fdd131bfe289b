package golang

import (
	"embed"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
	"github.com/blimu-dev/rpc-proxygen/pkg/utils"
)

//go:embed templates/*
var templatesFS embed.FS

// GoGenerator implements the Generator interface for Go
type GoGenerator struct{}

// NewGoGenerator creates a new Go generator
func NewGoGenerator() *GoGenerator {
	return &GoGenerator{}
}

// GetType returns the generator type identifier
func (g *GoGenerator) GetType() string {
	return "go"
}

// Generate renders one gofmt'ed Go file built on the proxy runtime package.
// The package name is in.Package, or derived from the local name.
func (g *GoGenerator) Generate(in ir.IR) (string, error) {
	if in.LocalName == "" {
		return "", fmt.Errorf("local name is required")
	}
	pkg := in.Package
	if pkg == "" {
		pkg = in.LocalName
	}
	pkg = utils.GoPackageName(pkg)

	funcMap := template.FuncMap{}
	for k, v := range sprig.TxtFuncMap() {
		funcMap[k] = v
	}
	funcMap["formatGoComment"] = formatGoComment
	funcMap["oneLine"] = func(s string) string { return strings.Join(strings.Fields(s), " ") }

	src, err := renderTemplate("proxy.go.gotmpl", funcMap, buildView(in, pkg))
	if err != nil {
		return "", err
	}
	formatted, err := format.Source([]byte(src))
	if err != nil {
		return "", fmt.Errorf("failed to format generated source: %w", err)
	}
	return string(formatted), nil
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
