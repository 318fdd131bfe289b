package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultLocalName is the proxy class name used when a client sets none.
const DefaultLocalName = "Proxy"

// Config represents the complete configuration for proxy generation
type Config struct {
	// Metadata is the service description file (YAML or JSON)
	Metadata string   `mapstructure:"metadata"`
	Clients  []Client `mapstructure:"clients"`
}

// Client represents one emitted proxy
type Client struct {
	// Language selects the emitter ("javascript", "typescript", "go")
	Language string `mapstructure:"language"`
	// OutFile is where the rendered source is written
	OutFile string `mapstructure:"outFile"`
	// LocalName is the generated class/type name
	LocalName string `mapstructure:"localName"`
	// Package is the Go package name; defaults to the lower-cased LocalName
	Package string `mapstructure:"package"`
	// PostCommand is an optional command to run after the file is written.
	// Uses Docker Compose array format: ["gofmt", "-w", "proxy.go"]
	// The command will be executed in the output file's directory.
	PostCommand []string `mapstructure:"postCommand"`
}

// GetPostCommand returns the post-generation command to execute.
func (c *Client) GetPostCommand() []string {
	return c.PostCommand
}

// Load loads configuration from a YAML file. Any top-level key can be
// overridden from the environment with the PROXYGEN_ prefix
// (PROXYGEN_METADATA=./api.yaml).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("metadata", "")
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PROXYGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields, applies defaults and makes paths absolute.
// Metadata given as an http(s) URL is left as is.
func (cfg *Config) Normalize() error {
	if cfg.Metadata == "" {
		return errors.New("config.metadata is required")
	}
	if !isRemote(cfg.Metadata) && !filepath.IsAbs(cfg.Metadata) {
		abs, _ := filepath.Abs(cfg.Metadata)
		cfg.Metadata = abs
	}
	for i := range cfg.Clients {
		c := &cfg.Clients[i]
		if c.Language == "" || c.OutFile == "" {
			return fmt.Errorf("clients[%d] missing required fields (language, outFile)", i)
		}
		if c.LocalName == "" {
			c.LocalName = DefaultLocalName
		}
		if !filepath.IsAbs(c.OutFile) {
			abs, _ := filepath.Abs(c.OutFile)
			c.OutFile = abs
		}
	}
	return nil
}

func isRemote(input string) bool {
	u, err := url.Parse(input)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
