// Package pool applies connection pool settings shared by the vendor openers.
package pool

import (
	"context"
	"database/sql"
	"time"

	"github.com/gaborage/go-dbaction/config"
)

// PingTimeout bounds the connectivity check performed after opening a pool.
const PingTimeout = 10 * time.Second

// Configure applies the pool limits in cfg to db.
func Configure(db *sql.DB, cfg config.PoolConfig) {
	db.SetMaxOpenConns(int(cfg.Max.Connections))
	db.SetMaxIdleConns(int(cfg.Idle.Connections))
	db.SetConnMaxIdleTime(cfg.Idle.Time)
	db.SetConnMaxLifetime(cfg.Lifetime.Max)
}

// Ping verifies connectivity within PingTimeout using ping.
func Ping(db *sql.DB, ping func(context.Context, *sql.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
	defer cancel()
	return ping(ctx, db)
}
