package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteYAML = `
database:
  type: sqlite
  sqlite:
    path: /tmp/orders.db
`

func requireConfigError(t *testing.T, err error) *ConfigError {
	t.Helper()
	require.Error(t, err)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %T: %v", err, err)
	return cfgErr
}

func TestLoadBytesAppliesDefaults(t *testing.T) {
	cfg, err := LoadBytes([]byte(sqliteYAML))
	require.NoError(t, err)

	assert.Equal(t, SQLite, cfg.Database.Type)
	assert.Equal(t, "/tmp/orders.db", cfg.Database.SQLite.Path)
	assert.Equal(t, int32(25), cfg.Database.Pool.Max.Connections)
	assert.Equal(t, int32(2), cfg.Database.Pool.Idle.Connections)
	assert.Equal(t, 5*time.Minute, cfg.Database.Pool.Idle.Time)
	assert.Equal(t, 30*time.Minute, cfg.Database.Pool.Lifetime.Max)
	assert.Equal(t, defaultSlowQueryThreshold, cfg.Database.Query.Slow.Threshold)
	assert.Equal(t, defaultMaxQueryLength, cfg.Database.Query.Log.MaxLength)
	assert.False(t, cfg.Database.Source.Cache)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestEnvironmentOverridesYAML(t *testing.T) {
	t.Setenv("DBACTION_DATABASE_POOL_MAX_CONNECTIONS", "7")
	t.Setenv("DBACTION_DATABASE_SOURCE_CACHE", "true")
	t.Setenv("DBACTION_LOG_LEVEL", "debug")

	cfg, err := LoadBytes([]byte(sqliteYAML))
	require.NoError(t, err)

	assert.Equal(t, int32(7), cfg.Database.Pool.Max.Connections)
	assert.True(t, cfg.Database.Source.Cache)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  type: postgresql
  host: db.internal
  port: 5432
  database: orders
  username: app
  password: secret
  query:
    slow:
      threshold: 50ms
custom:
  feature: enabled
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, PostgreSQL, cfg.Database.Type)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.Database.Query.Slow.Threshold)
	assert.Equal(t, "enabled", cfg.String("custom.feature"))
	assert.True(t, cfg.Exists("custom.feature"))
	assert.False(t, cfg.Exists("custom.missing"))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.yaml")
}

func TestLoadBytesRejectsBrokenYAML(t *testing.T) {
	_, err := LoadBytes([]byte("database: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse yaml")
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		category string
		field    string
	}{
		{
			name:     "missing_type",
			yaml:     "log:\n  level: info\n",
			category: "missing",
			field:    "database.type",
		},
		{
			name:     "unsupported_type",
			yaml:     "database:\n  type: mongodb\n",
			category: "invalid",
			field:    "database.type",
		},
		{
			name:     "postgres_without_host",
			yaml:     "database:\n  type: postgresql\n  port: 5432\n",
			category: "missing",
			field:    "database.host",
		},
		{
			name:     "postgres_without_port",
			yaml:     "database:\n  type: postgresql\n  host: db\n",
			category: "invalid",
			field:    "database.port",
		},
		{
			name:     "postgres_without_username",
			yaml:     "database:\n  type: postgresql\n  host: db\n  port: 5432\n  database: orders\n",
			category: "missing",
			field:    "database.username",
		},
		{
			name:     "port_out_of_range",
			yaml:     "database:\n  type: postgresql\n  host: db\n  port: 70000\n",
			category: "invalid",
			field:    "database.port",
		},
		{
			name:     "invalid_log_level",
			yaml:     sqliteYAML + "log:\n  level: loud\n",
			category: "invalid",
			field:    "log.level",
		},
		{
			name:     "invalid_sslmode",
			yaml:     "database:\n  type: postgresql\n  connectionstring: postgres://db/orders\n  postgresql:\n    sslmode: sometimes\n",
			category: "invalid",
			field:    "database.postgresql.sslmode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.yaml))
			cfgErr := requireConfigError(t, err)
			assert.Equal(t, tt.category, cfgErr.Category)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidationAcceptsAlternatives(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "postgres_connection_string",
			yaml: "database:\n  type: postgresql\n  connectionstring: postgres://app:pw@db:5432/orders\n",
		},
		{
			name: "oracle_service_name",
			yaml: "database:\n  type: oracle\n  host: ora\n  port: 1521\n  username: app\n  oracle:\n    service:\n      name: ORCLPDB1\n",
		},
		{
			name: "sqlite_default_memory_path",
			yaml: "database:\n  type: sqlite\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.yaml))
			assert.NoError(t, err)
		})
	}
}

func TestConfigErrorMessages(t *testing.T) {
	missing := NewMissingFieldError("database.host")
	assert.Equal(t, "config_missing: database.host required set DBACTION_DATABASE_HOST env var or add database.host to config.yaml", missing.Error())

	invalid := NewInvalidFieldError("database.type", "invalid value \"x\"", []string{PostgreSQL, SQLite})
	assert.Equal(t, "config_invalid: database.type invalid value \"x\" must be one of: postgresql, sqlite", invalid.Error())
}
