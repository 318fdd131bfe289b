package generator

import (
	"github.com/blimu-dev/rpc-proxygen/pkg/config"
	"github.com/blimu-dev/rpc-proxygen/pkg/metadata"
)

// Compile renders snap for language with the built-in emitters.
// An empty localName falls back to "Proxy".
func Compile(snap *metadata.Snapshot, language, localName string) (string, error) {
	return NewService(nil).Compile(snap, language, Options{LocalName: localName})
}

// GenerateFromConfig is a convenience function for generating from a config file
func GenerateFromConfig(configPath string, singleClient ...string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	onlyClient := ""
	if len(singleClient) > 0 {
		onlyClient = singleClient[0]
	}

	return NewService(nil).GenerateFromConfig(cfg, onlyClient)
}

// ValidateMetadata loads a description file and reports registration errors.
func ValidateMetadata(path string) error {
	_, err := metadata.LoadDescription(path)
	return err
}
