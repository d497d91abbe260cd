package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gaborage/go-dbaction/database/types"
)

// preparer is satisfied by both *sql.Conn and *sql.Tx.
type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var (
	_ preparer = (*sql.Conn)(nil)
	_ preparer = (*sql.Tx)(nil)
)

// Conn adapts a dedicated *sql.Conn to types.Conn.
//
// database/sql has no auto-commit switch, so Conn emulates one: while auto-commit is
// disabled the first statement begins a *sql.Tx and every following statement joins it
// until Commit or Rollback ends it. The next statement then begins a new transaction.
type Conn struct {
	conn    *sql.Conn
	vendor  string
	keyMode types.KeyMode

	tx         *sql.Tx
	autoCommit bool
	closed     bool

	// release runs after the connection is returned, e.g. to close a pool owned by this Conn
	release func() error
}

var _ types.Conn = (*Conn)(nil)

// NewConn wraps conn. The connection starts in auto-commit mode.
func NewConn(conn *sql.Conn, vendor string, keyMode types.KeyMode) *Conn {
	return &Conn{
		conn:       conn,
		vendor:     vendor,
		keyMode:    keyMode,
		autoCommit: true,
	}
}

// Raw returns the underlying *sql.Conn.
func (c *Conn) Raw() *sql.Conn {
	return c.conn
}

// InTransaction reports whether a transaction is pending.
func (c *Conn) InTransaction() bool {
	return c.tx != nil
}

// target returns where the next statement runs, beginning a transaction when
// auto-commit is disabled and none is pending.
func (c *Conn) target(ctx context.Context) (preparer, error) {
	if c.closed {
		return nil, types.ErrConnClosed
	}
	if c.autoCommit {
		return c.conn, nil
	}
	if c.tx == nil {
		tx, err := c.conn.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		c.tx = tx
	}
	return c.tx, nil
}

// Prepare creates a prepared statement on the connection or its pending transaction.
func (c *Conn) Prepare(ctx context.Context, query string) (types.Statement, error) {
	return c.prepare(ctx, query, false)
}

// PrepareWithKeys creates a prepared statement that reports generated keys according
// to the connection's key mode.
func (c *Conn) PrepareWithKeys(ctx context.Context, query string) (types.Statement, error) {
	if c.keyMode == types.KeysUnsupported {
		return nil, fmt.Errorf("%s: %w", c.vendor, types.ErrGeneratedKeysUnsupported)
	}
	return c.prepare(ctx, query, true)
}

func (c *Conn) prepare(ctx context.Context, query string, keys bool) (types.Statement, error) {
	p, err := c.target(ctx)
	if err != nil {
		return nil, err
	}
	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Statement{stmt: stmt, keys: keys, keyMode: c.keyMode}, nil
}

// AutoCommit reports the current auto-commit mode.
func (c *Conn) AutoCommit() bool {
	return c.autoCommit
}

// SetAutoCommit switches the auto-commit mode. Enabling it commits a pending transaction;
// if that commit fails the mode is left unchanged.
func (c *Conn) SetAutoCommit(_ context.Context, enabled bool) error {
	if c.closed {
		return types.ErrConnClosed
	}
	if enabled == c.autoCommit {
		return nil
	}
	if enabled && c.tx != nil {
		if err := c.endTx((*sql.Tx).Commit); err != nil {
			return err
		}
	}
	c.autoCommit = enabled
	return nil
}

// Commit commits the pending transaction, if any.
func (c *Conn) Commit(_ context.Context) error {
	if c.closed {
		return types.ErrConnClosed
	}
	return c.endTx((*sql.Tx).Commit)
}

// Rollback rolls back the pending transaction, if any.
func (c *Conn) Rollback(_ context.Context) error {
	if c.closed {
		return types.ErrConnClosed
	}
	return c.endTx((*sql.Tx).Rollback)
}

// endTx finishes the pending transaction; the transaction is gone afterwards even when
// end fails, as database/sql does not allow a second attempt.
func (c *Conn) endTx(end func(*sql.Tx) error) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return end(tx)
}

// Close rolls back a pending transaction and returns the connection to its pool.
// Closing an already closed Conn is a no-op.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.tx != nil {
		if err := c.endTx((*sql.Tx).Rollback); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, fmt.Errorf("rollback on close: %w", err))
		}
	}
	if err := c.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.release != nil {
		if err := c.release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DatabaseType returns the vendor identifier.
func (c *Conn) DatabaseType() string {
	return c.vendor
}
