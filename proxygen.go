// Package proxygen compiles RPC service metadata into client proxy source.
//
// A service registers its methods, events and types with a metadata.Registry;
// Compile renders that registry for one target language:
//
//	reg := metadata.NewRegistry("1.0.0", "render")
//	_ = reg.RegisterEnumLabels("Mode", "A", "B")
//	_ = reg.RegisterMethod(metadata.MethodDef{Name: "vray.start", Returns: metadata.ReturnsAsync})
//
//	src, err := proxygen.Compile(proxygen.CompileOptions{
//		Service:        reg,
//		TargetLanguage: "javascript",
//		LocalName:      "Tester",
//	})
//
// For configuration-driven generation see GenerateFromConfig and the
// generator package.
package proxygen

import (
	"errors"

	"github.com/blimu-dev/rpc-proxygen/pkg/generator"
	"github.com/blimu-dev/rpc-proxygen/pkg/metadata"
)

// ErrUnsupportedLanguage is returned when no emitter exists for TargetLanguage.
var ErrUnsupportedLanguage = generator.ErrUnsupportedLanguage

// MetadataSource is anything that can describe itself as a metadata snapshot.
// *metadata.Registry implements it.
type MetadataSource interface {
	GetMetadataSnapshot() *metadata.Snapshot
}

// CompileOptions contains options for Compile
type CompileOptions struct {
	// Service supplies the metadata to compile
	Service MetadataSource

	// TargetLanguage selects the emitter ("javascript", "typescript", "go")
	TargetLanguage string

	// LocalName is the generated class/type name; defaults to "Proxy"
	LocalName string

	// Package is the Go package name; defaults to the lower-cased LocalName
	Package string
}

// Compile renders the service's metadata as proxy source for TargetLanguage.
// It has no side effects; an unsupported language returns
// ErrUnsupportedLanguage and no source.
func Compile(opts CompileOptions) (string, error) {
	if opts.Service == nil {
		return "", errors.New("proxygen: no service")
	}
	return generator.NewService(nil).Compile(opts.Service.GetMetadataSnapshot(), opts.TargetLanguage, generator.Options{
		LocalName: opts.LocalName,
		Package:   opts.Package,
	})
}

// Languages lists the supported target languages, sorted.
func Languages() []string {
	return generator.NewDefaultRegistry().GetAvailableTypes()
}

// GenerateFromConfig compiles every client in a proxygen.yaml file and writes
// the results. Optionally, only the named client is generated.
//
// Example:
//
//	err := proxygen.GenerateFromConfig("./proxygen.yaml")
//
//	// Generate only a specific client
//	err := proxygen.GenerateFromConfig("./proxygen.yaml", "Tester")
func GenerateFromConfig(configPath string, singleClient ...string) error {
	return generator.GenerateFromConfig(configPath, singleClient...)
}

// ValidateMetadata loads a metadata description file and reports any
// registration error.
func ValidateMetadata(path string) error {
	return generator.ValidateMetadata(path)
}
