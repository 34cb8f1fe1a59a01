package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/tagwire/tagwire/pkg/version"
)

const appName = "tagwire"

var legalFormats = []string{"cbor", "json"}

// Config holds the tool defaults read from the user's config file.
type Config struct {
	// Version records which release wrote this file
	Version string `json:"version,omitempty"`
	// LogLevel is the logrus level name, e.g. "info" or "debug"
	LogLevel string `json:"logLevel,omitempty"`
	// Defaults seed the serializer before flags are applied
	Defaults *Defaults `json:"defaults,omitempty"`
	// Schema is the validation schema applied when none is given on the
	// command line
	Schema *Schema `json:"schema,omitempty"`
}

type Defaults struct {
	// Format is the wire format assumed when none is given, cbor or json
	Format string `json:"format,omitempty"`
	// Indent is the JSON output indent width, 0 for compact output
	Indent int `json:"indent,omitempty"`
	// ByteFormat is the base encoding for byte strings: base64url,
	// base64 or base16
	ByteFormat string `json:"byteFormat,omitempty"`
	// EnumAsString writes registered enums by name
	EnumAsString bool `json:"enumAsString,omitempty"`
}

type Schema struct {
	// Path points at a JSON Schema file
	Path string `json:"path,omitempty"`
}

func NewDefault() *Config {
	return &Config{
		Version:  version.Get().GitVersion,
		LogLevel: "info",
		Defaults: &Defaults{
			Format:     "cbor",
			ByteFormat: "base64url",
		},
	}
}

func NewFromFile(cfgFile string) (*Config, error) {
	cfg, err := Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadOrGenerate(cfgFile string) (*Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(cfgFile), os.FileMode(0755)); err != nil {
			return nil, fmt.Errorf("creating directory for config file: %w", err)
		}
		if err := Save(NewDefault(), cfgFile); err != nil {
			return nil, err
		}
	}
	return NewFromFile(cfgFile)
}

func Load(cfgFile string) (*Config, error) {
	contents, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(contents, c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

func Save(cfg *Config, cfgFile string) error {
	contents, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(cfgFile, contents, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func Validate(cfg *Config) error {
	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid log level %q", cfg.LogLevel)
		}
	}
	if d := cfg.Defaults; d != nil {
		if d.Format != "" && !lo.Contains(legalFormats, d.Format) {
			return fmt.Errorf("invalid default format %q, must be one of %v", d.Format, legalFormats)
		}
		if d.Indent < 0 || d.Indent > 8 {
			return fmt.Errorf("indent must be between 0 and 8, got %d", d.Indent)
		}
		switch d.ByteFormat {
		case "", "base64url", "base64", "base16":
		default:
			return fmt.Errorf("invalid byte format %q", d.ByteFormat)
		}
	}
	if cfg.Schema != nil && cfg.Schema.Path != "" {
		if _, err := os.Stat(cfg.Schema.Path); err != nil {
			return fmt.Errorf("schema file: %w", err)
		}
	}
	return version.NewCompatibilityChecker().CheckCompatibility(cfg.Version)
}

func (cfg *Config) String() string {
	contents, err := json.Marshal(cfg)
	if err != nil {
		return "<error>"
	}
	return string(contents)
}

// DefaultPath returns the config file location under the user's config
// directory, honoring TAGWIRE_CONFIG as an override.
func DefaultPath() string {
	if override := os.Getenv("TAGWIRE_CONFIG"); override != "" {
		return override
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, appName, "config.yaml")
}
