package generator

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/blimu-dev/rpc-proxygen/pkg/config"
	"github.com/blimu-dev/rpc-proxygen/pkg/generator/golang"
	"github.com/blimu-dev/rpc-proxygen/pkg/generator/javascript"
	"github.com/blimu-dev/rpc-proxygen/pkg/generator/typescript"
	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
	"github.com/blimu-dev/rpc-proxygen/pkg/metadata"
)

// ErrUnsupportedLanguage is returned when no emitter is registered for a target language.
var ErrUnsupportedLanguage = errors.New("generator: unsupported language")

// Generator renders proxy source for one target language
type Generator interface {
	// Generate renders the complete source text for the given IR
	Generate(in ir.IR) (string, error)
	// GetType returns the language identifier for this generator (e.g., "javascript")
	GetType() string
}

// Registry manages available generators
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// NewDefaultRegistry creates a registry holding the built-in emitters
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(javascript.NewJavaScriptGenerator())
	registry.Register(typescript.NewTypeScriptGenerator())
	registry.Register(golang.NewGoGenerator())
	return registry
}

// Register adds a generator to the registry
func (r *Registry) Register(gen Generator) {
	r.generators[gen.GetType()] = gen
}

// Get retrieves a generator by type
func (r *Registry) Get(genType string) (Generator, bool) {
	gen, exists := r.generators[genType]
	return gen, exists
}

// GetAvailableTypes returns all registered generator types, sorted
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Options tune a single compilation
type Options struct {
	// LocalName is the generated class/type name (default "Proxy")
	LocalName string
	// Package is the target package name for emitters that need one
	Package string
}

// Service provides high-level proxy generation functionality
type Service struct {
	registry *Registry
	logger   *zap.Logger
}

// NewService creates a new generator service with default generators
func NewService(logger *zap.Logger) *Service {
	return NewServiceWithRegistry(NewDefaultRegistry(), logger)
}

// NewServiceWithRegistry creates a new generator service with a custom registry
func NewServiceWithRegistry(registry *Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry: registry,
		logger:   logger,
	}
}

// GetRegistry returns the generator registry
func (s *Service) GetRegistry() *Registry {
	return s.registry
}

// Compile renders snap for language. It is a pure function of its inputs:
// nothing is written, and an unknown language yields no output at all.
func (s *Service) Compile(snap *metadata.Snapshot, language string, opts Options) (string, error) {
	gen, exists := s.registry.Get(language)
	if !exists {
		return "", fmt.Errorf("%w: %q (available: %s)", ErrUnsupportedLanguage, language, strings.Join(s.registry.GetAvailableTypes(), ", "))
	}
	if snap == nil {
		return "", errors.New("generator: nil metadata snapshot")
	}
	out, err := gen.Generate(BuildIR(snap, opts))
	if err != nil {
		return "", fmt.Errorf("generator: %s: %w", language, err)
	}
	return out, nil
}

// GenerateFromConfig compiles every configured client and writes its file
func (s *Service) GenerateFromConfig(cfg *config.Config, onlyClient string) error {
	reg, err := metadata.LoadDescription(cfg.Metadata)
	if err != nil {
		return err
	}
	snap := reg.Snapshot()

	matched := false
	for _, client := range cfg.Clients {
		if onlyClient != "" && client.LocalName != onlyClient {
			continue
		}
		matched = true

		src, err := s.Compile(snap, client.Language, Options{LocalName: client.LocalName, Package: client.Package})
		if err != nil {
			return fmt.Errorf("client %s: %w", client.LocalName, err)
		}
		if err := writeFile(client.OutFile, src); err != nil {
			return fmt.Errorf("client %s: %w", client.LocalName, err)
		}
		s.logger.Info("proxy written",
			zap.String("client", client.LocalName),
			zap.String("language", client.Language),
			zap.String("file", client.OutFile),
		)

		if err := s.executePostGenCommands(client); err != nil {
			return fmt.Errorf("post-generation commands failed for client %s: %w", client.LocalName, err)
		}
	}
	if onlyClient != "" && !matched {
		return fmt.Errorf("no client named %q in config", onlyClient)
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// executePostGenCommands executes the post-generation command for a client
func (s *Service) executePostGenCommands(client config.Client) error {
	command := client.GetPostCommand()
	if len(command) == 0 {
		return nil
	}
	return s.executeCommand(command, filepath.Dir(client.OutFile), "post-command")
}

// executeCommand executes a single command in Docker Compose array format
func (s *Service) executeCommand(command []string, workDir, commandLabel string) error {
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmdDescription := strings.Join(command, " ")
	s.logger.Debug("running command", zap.String("label", commandLabel), zap.String("command", cmdDescription))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s (%s) failed: %w", commandLabel, cmdDescription, err)
	}
	return nil
}
