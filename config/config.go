package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by the loaders.
// DBACTION_DATABASE_POOL_MAX_CONNECTIONS maps to database.pool.max.connections.
const EnvPrefix = "DBACTION_"

// DefaultFile is the YAML file Load reads when it exists.
const DefaultFile = "config.yaml"

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. config.yaml in the working directory, if present
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	if _, err := os.Stat(DefaultFile); errors.Is(err, fs.ErrNotExist) {
		return load(nil)
	}
	return LoadFile(DefaultFile)
}

// LoadFile loads configuration from the YAML file at path, layered over defaults
// and under environment variables. The file must exist.
func LoadFile(path string) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	})
}

// LoadBytes loads configuration from an in-memory YAML document, layered over defaults
// and under environment variables.
func LoadBytes(content []byte) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
		return nil
	})
}

func load(source func(*koanf.Koanf) error) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if source != nil {
		if err := source(k); err != nil {
			return nil, err
		}
	}

	// Convert DBACTION_UPPER_CASE to upper.case for koanf
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"database.pool.max.connections":  25,
		"database.pool.idle.connections": 2,
		"database.pool.idle.time":        "5m",
		"database.pool.lifetime.max":     "30m",
		"database.query.slow.threshold":  defaultSlowQueryThreshold.String(),
		"database.query.slow.enabled":    true,
		"database.query.log.enabled":     false,
		"database.query.log.parameters":  false,
		"database.query.log.max":         defaultMaxQueryLength,
		"database.source.cache":          false,
		"database.sqlite.path":           ":memory:",

		"log.level":  "info",
		"log.pretty": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// String returns the raw value at a dotted path, for settings outside the typed structure.
func (c *Config) String(path string) string {
	if c.k == nil {
		return ""
	}
	return c.k.String(path)
}

// Exists reports whether a dotted path was set by any source.
func (c *Config) Exists(path string) bool {
	return c.k != nil && c.k.Exists(path)
}
