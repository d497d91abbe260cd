// Package sqlite opens SQLite databases through the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gaborage/go-dbaction/config"
	"github.com/gaborage/go-dbaction/database/internal/pool"
	"github.com/gaborage/go-dbaction/database/types"
	"github.com/gaborage/go-dbaction/logger"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// KeyMode is how SQLite reports generated keys: through the driver's last insert id.
const KeyMode = types.KeysLastInsertID

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

var (
	openSQLiteDB = func(dsn string) (*sql.DB, error) {
		return sql.Open(DriverName, dsn)
	}
	pingSQLiteDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// BuildDSN returns the driver DSN for cfg. Foreign keys are enforced and writers wait
// up to five seconds for a lock. An explicit connection string wins.
func BuildDSN(cfg *config.DatabaseConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}
	path := cfg.SQLite.Path
	if path == "" {
		path = MemoryPath
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
}

// IsMemory reports whether cfg selects an in-memory database.
func IsMemory(cfg *config.DatabaseConfig) bool {
	if cfg.ConnectionString != "" {
		return strings.Contains(cfg.ConnectionString, MemoryPath) ||
			strings.Contains(cfg.ConnectionString, "mode=memory")
	}
	return cfg.SQLite.Path == "" || cfg.SQLite.Path == MemoryPath
}

// Open creates a configured and reachable SQLite pool.
//
// Every connection to ":memory:" is a separate database, so an in-memory pool is limited
// to one connection that is never recycled.
func Open(cfg *config.DatabaseConfig, log logger.Logger) (*sql.DB, error) {
	db, err := openSQLiteDB(BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	memory := IsMemory(cfg)
	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	} else {
		pool.Configure(db, cfg.Pool)
	}

	if err := pool.Ping(db, pingSQLiteDB); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close SQLite database after ping failure")
		}
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	log.Info().
		Str("path", cfg.SQLite.Path).
		Bool("memory", memory).
		Msg("Opened SQLite database")

	return db, nil
}
