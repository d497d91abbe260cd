package tracking

import (
	"context"
	"time"

	"github.com/gaborage/go-dbaction/database/types"
	"github.com/gaborage/go-dbaction/logger"
)

// Conn wraps a types.Conn and tracks every operation it performs.
type Conn struct {
	conn types.Conn
	tc   *Context
}

var _ types.Conn = (*Conn)(nil)

// NewConn returns conn decorated with tracking. The vendor is taken from conn.DatabaseType().
func NewConn(conn types.Conn, log logger.Logger, settings Settings) *Conn {
	return &Conn{
		conn: conn,
		tc: &Context{
			Logger:   log,
			Vendor:   conn.DatabaseType(),
			Settings: settings,
		},
	}
}

// Unwrap returns the decorated connection.
func (c *Conn) Unwrap() types.Conn {
	return c.conn
}

// Prepare prepares a tracked statement.
func (c *Conn) Prepare(ctx context.Context, query string) (types.Statement, error) {
	start := time.Now()
	stmt, err := c.conn.Prepare(ctx, query)
	Track(ctx, c.tc, prefixPrepare+query, nil, start, 0, err)
	if err != nil {
		return nil, err
	}
	return NewStatement(stmt, c.tc, query), nil
}

// PrepareWithKeys prepares a tracked statement that reports generated keys.
func (c *Conn) PrepareWithKeys(ctx context.Context, query string) (types.Statement, error) {
	start := time.Now()
	stmt, err := c.conn.PrepareWithKeys(ctx, query)
	Track(ctx, c.tc, prefixPrepareKeys+query, nil, start, 0, err)
	if err != nil {
		return nil, err
	}
	return NewStatement(stmt, c.tc, query), nil
}

// AutoCommit reports the auto-commit mode (no tracking needed)
func (c *Conn) AutoCommit() bool {
	return c.conn.AutoCommit()
}

// SetAutoCommit switches the auto-commit mode with tracking
func (c *Conn) SetAutoCommit(ctx context.Context, enabled bool) error {
	op := OpSetAutoCommitOff
	if enabled {
		op = OpSetAutoCommitOn
	}
	start := time.Now()
	err := c.conn.SetAutoCommit(ctx, enabled)
	Track(ctx, c.tc, op, nil, start, 0, err)
	return err
}

// Commit commits with tracking
func (c *Conn) Commit(ctx context.Context) error {
	start := time.Now()
	err := c.conn.Commit(ctx)
	Track(ctx, c.tc, OpCommit, nil, start, 0, err)
	return err
}

// Rollback rolls back with tracking
func (c *Conn) Rollback(ctx context.Context) error {
	start := time.Now()
	err := c.conn.Rollback(ctx)
	Track(ctx, c.tc, OpRollback, nil, start, 0, err)
	return err
}

// Close closes the connection (no tracking needed)
func (c *Conn) Close() error {
	return c.conn.Close()
}

// DatabaseType returns the vendor (no tracking needed)
func (c *Conn) DatabaseType() string {
	return c.conn.DatabaseType()
}
