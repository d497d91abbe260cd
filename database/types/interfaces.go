// Package types contains the connection-level contracts consumed by go-dbaction.
// These interfaces are separate from the database package to avoid import cycles
// and to make them easily accessible for mocking and testing.
//
//nolint:revive // Package name "types" is intentionally generic to avoid circular
package types

import (
	"context"
)

// Database vendor identifiers shared across the database packages.
type Vendor = string

const (
	PostgreSQL Vendor = "postgresql"
	Oracle     Vendor = "oracle"
	SQLite     Vendor = "sqlite"
)

// KeyMode describes how a vendor surfaces keys generated by an insert.
type KeyMode int

const (
	// KeysLastInsertID reads the key from the driver result (sql.Result.LastInsertId).
	KeysLastInsertID KeyMode = iota
	// KeysReturning executes the statement as a query; its rows are the generated keys.
	// The statement text must carry a RETURNING clause.
	KeysReturning
	// KeysUnsupported rejects generated key requests with ErrGeneratedKeysUnsupported.
	KeysUnsupported
)

// String returns the configuration name of the key mode.
func (m KeyMode) String() string {
	switch m {
	case KeysLastInsertID:
		return "lastinsertid"
	case KeysReturning:
		return "returning"
	case KeysUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Rows is a forward-only cursor over a result set. *sql.Rows satisfies it.
type Rows interface {
	// Next advances to the next row, returning false when the cursor is exhausted
	// or an error occurred (check Err).
	Next() bool
	// Scan copies the columns of the current row into dest.
	Scan(dest ...any) error
	// Columns returns the column names of the result set.
	Columns() ([]string, error)
	// Err returns the error, if any, encountered during iteration.
	Err() error
	// Close releases the cursor. It is safe to call more than once.
	Close() error
}

// Result summarizes an executed update. sql.Result satisfies it.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Statement is a prepared statement bound to a single connection.
// Positional parameters are passed as args: args[i] binds placeholder i+1.
type Statement interface {
	// Exec runs the statement as an update.
	Exec(ctx context.Context, args ...any) (Result, error)

	// Query runs the statement and returns a cursor over its rows.
	// The caller is responsible for closing the returned rows.
	Query(ctx context.Context, args ...any) (Rows, error)

	// GeneratedKeys returns a cursor over the keys produced by the last Exec.
	// Only statements created by Conn.PrepareWithKeys produce keys.
	GeneratedKeys() (Rows, error)

	// Close releases the statement and any cursor it still holds.
	Close() error
}

// Conn is a single live database connection.
//
// Conn carries an auto-commit mode: while enabled every statement commits on its own;
// while disabled statements accumulate in a transaction that is ended by Commit or Rollback.
// A Conn is not safe for concurrent use.
type Conn interface {
	// Prepare creates a prepared statement for later execution.
	Prepare(ctx context.Context, query string) (Statement, error)

	// PrepareWithKeys creates a prepared statement whose Exec makes generated keys
	// available through Statement.GeneratedKeys.
	PrepareWithKeys(ctx context.Context, query string) (Statement, error)

	// AutoCommit reports the current auto-commit mode.
	AutoCommit() bool

	// SetAutoCommit switches the auto-commit mode. Enabling auto-commit while a
	// transaction is pending commits that transaction.
	SetAutoCommit(ctx context.Context, enabled bool) error

	// Commit makes all changes since the previous Commit/Rollback permanent.
	// It is a no-op while auto-commit is enabled or nothing is pending.
	Commit(ctx context.Context) error

	// Rollback discards all changes since the previous Commit/Rollback.
	// It is a no-op while auto-commit is enabled or nothing is pending.
	Rollback(ctx context.Context) error

	// Close rolls back any pending transaction and releases the connection.
	Close() error

	// DatabaseType returns the vendor identifier for this connection.
	DatabaseType() string
}
