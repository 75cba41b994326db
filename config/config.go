package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. SOCKEN_SERVER_PORT.
const EnvPrefix = "SOCKEN"

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Votes    VotesConfig    `yaml:"votes" envconfig:"VOTES"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" split_words:"true" validate:"oneof=json text"`
}

// DataConfig locates the survey export and its schema.
type DataConfig struct {
	Path      string `yaml:"path" split_words:"true"`
	Format    string `yaml:"format" split_words:"true" validate:"omitempty,oneof=csv xlsx"`
	Sheet     string `yaml:"sheet" split_words:"true"`
	Delimiter string `yaml:"delimiter" split_words:"true" validate:"len=1"`
	Schema    string `yaml:"schema" split_words:"true"` // empty = embedded Sockenstudie schema
}

// DelimiterRune returns the configured delimiter.
func (d DataConfig) DelimiterRune() rune {
	for _, r := range d.Delimiter {
		return r
	}
	return ';'
}

// ResolvedFormat returns Format, or the format implied by Path's extension.
func (d DataConfig) ResolvedFormat() string {
	if d.Format != "" {
		return d.Format
	}
	if strings.HasSuffix(strings.ToLower(d.Path), ".xlsx") {
		return "xlsx"
	}
	return "csv"
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" split_words:"true" validate:"min=1,dive,required"`
}

// VotesConfig toggles the drawing vote register.
type VotesConfig struct {
	Enabled    bool `yaml:"enabled" split_words:"true"`
	PodiumSize int  `yaml:"podium_size" split_words:"true" validate:"min=1"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			Path:      "data/sockenstudie.csv",
			Delimiter: ";",
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
		},
		Votes: VotesConfig{
			Enabled:    true,
			PodiumSize: 3,
		},
	}
}

// Load builds the configuration in three layers: defaults, the optional
// YAML file at path, then SOCKEN_* environment variables.
// An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
