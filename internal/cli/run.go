package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/blimu-dev/rpc-proxygen/pkg/config"
	"github.com/blimu-dev/rpc-proxygen/pkg/generator"
	"github.com/blimu-dev/rpc-proxygen/pkg/metadata"
)

// FallbackParams describe a single client when no config file is given
type FallbackParams struct {
	Metadata  string
	Language  string
	OutFile   string
	LocalName string
	Package   string
}

// RunGenerateParams holds the generate command's flags
type RunGenerateParams struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackParams
}

// RunGenerate writes every requested proxy, from a config file or the fallback flags.
func RunGenerate(out io.Writer, logger *zap.Logger, p RunGenerateParams) error {
	var cfg *config.Config
	if p.ConfigPath == "" {
		fb := p.Fallback
		if fb.Metadata == "" || fb.Language == "" || fb.OutFile == "" {
			return errors.New("either --config or all of --metadata, --language, --out must be provided")
		}
		cfg = &config.Config{
			Metadata: fb.Metadata,
			Clients: []config.Client{{
				Language:  fb.Language,
				OutFile:   fb.OutFile,
				LocalName: fb.LocalName,
				Package:   fb.Package,
			}},
		}
		if err := cfg.Normalize(); err != nil {
			return err
		}
	} else {
		loaded, err := config.Load(p.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if err := generator.NewService(logger).GenerateFromConfig(cfg, p.SingleClient); err != nil {
		return err
	}

	success := color.New(color.FgGreen, color.Bold)
	for _, c := range cfg.Clients {
		if p.SingleClient != "" && c.LocalName != p.SingleClient {
			continue
		}
		success.Fprintf(out, "✓ %s (%s) -> %s\n", c.LocalName, c.Language, c.OutFile)
	}
	return nil
}

// RunValidate loads a metadata description and reports what it registers.
func RunValidate(out io.Writer, path string) error {
	reg, err := metadata.LoadDescription(path)
	if err != nil {
		return err
	}
	snap := reg.Snapshot()
	color.New(color.FgGreen, color.Bold).Fprintf(out, "✓ %s is valid\n", path)
	color.New(color.FgCyan).Fprintf(out, "  %d methods, %d events, %d types, %d namespaces\n",
		len(snap.Methods()), len(snap.Events()), len(snap.Types()), len(snap.Namespaces()))
	return nil
}

// RunSchema prints the registered types as OpenAPI 3 components JSON.
func RunSchema(ctx context.Context, out io.Writer, path string) error {
	reg, err := metadata.LoadDescription(path)
	if err != nil {
		return err
	}
	components, err := reg.Snapshot().Components(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(components, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode components: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// RunLanguages lists the registered emitters.
func RunLanguages(out io.Writer) error {
	for _, lang := range generator.NewDefaultRegistry().GetAvailableTypes() {
		if _, err := fmt.Fprintln(out, lang); err != nil {
			return err
		}
	}
	return nil
}
