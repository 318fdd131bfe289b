package cli

import (
	"go.uber.org/zap"
)

// NewLogger builds the CLI logger: human-readable with --verbose, JSON
// warnings and errors otherwise.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
