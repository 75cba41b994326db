package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/sockenstudie/engine"
)

// ============================================================================
// LOADING — Embedded default, YAML and JSON files
// ============================================================================

//go:embed sockenstudie.yaml
var sockenstudieYAML []byte

// ErrUnknownFormat is returned for schema files that are neither YAML nor JSON.
var ErrUnknownFormat = errors.New("unknown schema format")

// Supported formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Default returns the canonical Sockenstudie survey.
func Default() *Config {
	cfg, err := Parse(sockenstudieYAML, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("schema: embedded survey is invalid: %v", err))
	}
	return cfg
}

// DefaultYAML returns the embedded survey source.
func DefaultYAML() []byte {
	return bytes.Clone(sockenstudieYAML)
}

// Load reads a schema file, choosing the format from its extension.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// FormatFromPath maps a file extension to a schema format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Parse decodes and validates a schema.
func Parse(data []byte, format string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes cfg in the given format.
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(cfg, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func (c *Config) setDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if len(c.AllTags) == 0 {
		c.AllTags = []string{engine.DefaultAllTag}
	}
	if c.Placeholder == "" {
		c.Placeholder = engine.DefaultPlaceholder
	}
}
