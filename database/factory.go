package database

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/gaborage/go-dbaction/config"
	"github.com/gaborage/go-dbaction/database/oracle"
	"github.com/gaborage/go-dbaction/database/postgresql"
	"github.com/gaborage/go-dbaction/database/sqlite"
	"github.com/gaborage/go-dbaction/database/types"
	"github.com/gaborage/go-dbaction/logger"
)

type opener func(cfg *config.DatabaseConfig, log logger.Logger) (*sql.DB, error)

var openers = map[string]opener{
	PostgreSQL: postgresql.Open,
	Oracle:     oracle.Open,
	SQLite:     sqlite.Open,
}

// KeyModeFor returns how vendor surfaces generated keys. Unknown vendors fall back to
// the driver's last insert id.
func KeyModeFor(vendor string) types.KeyMode {
	switch vendor {
	case PostgreSQL:
		return postgresql.KeyMode
	case Oracle:
		return oracle.KeyMode
	case SQLite:
		return sqlite.KeyMode
	default:
		return types.KeysLastInsertID
	}
}

// Open opens the connection pool selected by cfg.Type.
func Open(cfg *config.DatabaseConfig, log logger.Logger) (*sql.DB, error) {
	open, ok := openers[cfg.Type]
	if !ok {
		return nil, ValidateDatabaseType(cfg.Type)
	}
	return open(cfg, log)
}

// ValidateDatabaseType returns nil if dbType is one of the supported database types.
func ValidateDatabaseType(dbType string) error {
	supported := GetSupportedDatabaseTypes()
	if !slices.Contains(supported, dbType) {
		return fmt.Errorf("unsupported database type: %s (supported: %v)", dbType, supported)
	}
	return nil
}

// GetSupportedDatabaseTypes returns a list of supported database types
func GetSupportedDatabaseTypes() []string {
	return []string{PostgreSQL, Oracle, SQLite}
}

// Source is the connection source built from configuration. It owns the pool it draws from.
// Unless the source is cached, every Get checks out a fresh connection that the caller
// must close to hand it back to the pool.
type Source struct {
	ConnectionSource

	db         *sql.DB
	vendor     string
	cache      *CachingSource
	unregister func()
}

// NewSource opens the configured pool and returns a source over it. Connections are
// decorated with tracking when database.query.log.enabled is set, and the source caches
// its first connection when database.source.cache is set. In-memory SQLite is always
// cached: its pool holds a single connection and every connection would see a
// different database.
func NewSource(cfg *config.DatabaseConfig, log logger.Logger) (*Source, error) {
	db, err := Open(cfg, log)
	if err != nil {
		return nil, &AcquireError{Source: cfg.Type, Err: err}
	}

	opts := []SourceOption{WithLogger(log)}
	if cfg.Query.Log.Enabled {
		opts = append(opts, WithTracking(NewTrackingSettings(cfg)))
	}

	s := &Source{
		db:         db,
		vendor:     cfg.Type,
		unregister: RegisterPoolMetrics(db.Stats, cfg.Type),
	}
	pooled := NewPoolSource(db, cfg.Type, opts...)
	s.ConnectionSource = pooled
	cache := cfg.Source.Cache || (cfg.Type == SQLite && sqlite.IsMemory(cfg))
	if cache {
		s.cache = NewCachingSource(pooled)
		s.ConnectionSource = s.cache
	}

	log.Debug().
		Str("vendor", cfg.Type).
		Bool("cache", cache).
		Bool("tracking", cfg.Query.Log.Enabled).
		Msg("Connection source ready")

	return s, nil
}

func (s *Source) String() string {
	return describe(s.ConnectionSource)
}

// DB returns the underlying pool.
func (s *Source) DB() *sql.DB {
	return s.db
}

// Vendor returns the configured database type.
func (s *Source) Vendor() string {
	return s.vendor
}

// Close releases a cached connection, if any, and closes the pool. Connections handed out
// by an uncached source must be closed by their users.
func (s *Source) Close() error {
	var errs []error
	if s.cache != nil {
		if conn := s.cache.Cached(); conn != nil {
			if err := conn.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close cached connection: %w", err))
			}
		}
	}
	if s.unregister != nil {
		s.unregister()
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
