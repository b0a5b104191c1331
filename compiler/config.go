package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/veloxsql/dialect/sql"
	"github.com/syssam/veloxsql/schema"
)

// Config is the file form of the compiler configuration:
//
//	dialect: postgres
//	naming: snake
//	strictFieldNames: true
//	logLevel: debug
type Config struct {
	// Dialect is one of mysql, postgres or sqlite.
	Dialect string `yaml:"dialect"`
	// Naming is the table and column naming strategy (identity or snake).
	Naming string `yaml:"naming,omitempty"`
	// StrictFieldNames rejects unknown names in field-name lists.
	StrictFieldNames bool `yaml:"strictFieldNames,omitempty"`
	// LogLevel is the minimum level of the compiler logger.
	LogLevel string `yaml:"logLevel,omitempty"`
}

// LoadConfig reads and validates a configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compiler config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse compiler config %q: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates a YAML configuration. Unknown keys are
// rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Dialect == "" {
		return NewConfigError("dialect", nil, "dialect is required")
	}
	if _, err := sql.NewProvider(cfg.Dialect); err != nil {
		return NewConfigError("dialect", cfg.Dialect, err.Error())
	}
	if _, err := schema.ParseNaming(cfg.Naming); err != nil {
		return NewConfigError("naming", cfg.Naming, "use identity or snake")
	}
	if _, err := cfg.level(); err != nil {
		return NewConfigError("logLevel", cfg.LogLevel, err.Error())
	}
	return nil
}

func (cfg *Config) level() (slog.Level, error) {
	var l slog.Level
	if cfg.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	err := l.UnmarshalText([]byte(cfg.LogLevel))
	return l, err
}

// NewFromConfig returns a compiler for the dialect, naming strategy and
// strictness of cfg, logging as text to standard error at cfg.LogLevel.
// Options are applied after the configuration and may override it.
func NewFromConfig(cfg *Config, opts ...Option) (*Compiler, error) {
	if cfg == nil {
		return nil, NewConfigError("config", nil, "config cannot be nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p, err := sql.NewProvider(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	naming, err := schema.ParseNaming(cfg.Naming)
	if err != nil {
		return nil, err
	}
	level, err := cfg.level()
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithRegistry(schema.NewRegistry(schema.WithNaming(naming))),
		WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))),
	}
	if cfg.StrictFieldNames {
		base = append(base, WithStrictFieldNames())
	}
	return New(p, append(base, opts...)...)
}
