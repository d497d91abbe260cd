// Package testing provides in-memory fakes of the connection contracts for unit tests.
//
// FakeConn implements types.Conn. Statements are configured per SQL text with OnPrepare
// and every interaction is appended to a call log, so tests can assert the exact order
// of prepares, executions, auto-commit switches, commits and rollbacks:
//
//	conn := NewFakeConn(types.SQLite)
//	conn.OnPrepare("UPDATE t SET v = ?").WillReturnRowsAffected(1)
//
//	// ... run code under test ...
//
//	AssertCalls(t, conn,
//	    "set_auto_commit:false",
//	    "prepare:UPDATE t SET v = ?",
//	    "exec:UPDATE t SET v = ?",
//	    "close_stmt:UPDATE t SET v = ?",
//	    "commit",
//	    "set_auto_commit:true",
//	)
//
// Statements that were never configured succeed with zero rows affected and an empty result.
package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/gaborage/go-dbaction/database/types"
)

// Call log entries without statement text.
const (
	CallCommit   = "commit"
	CallRollback = "rollback"
	CallClose    = "close"
)

// FakeConn is an in-memory types.Conn recording every call made on it.
type FakeConn struct {
	mu sync.Mutex

	vendor     string
	keyMode    types.KeyMode
	autoCommit bool
	closed     bool

	calls      []string
	statements map[string]*FakeStatement

	setAutoCommitErr map[bool]error
	commitErr        error
	rollbackErr      error
	closeErr         error
}

var _ types.Conn = (*FakeConn)(nil)

// NewFakeConn creates a connection in auto-commit mode. The key mode follows the vendor:
// SQLite reports last insert ids, PostgreSQL uses RETURNING, Oracle has none.
func NewFakeConn(vendor string) *FakeConn {
	mode := types.KeysLastInsertID
	switch vendor {
	case types.PostgreSQL:
		mode = types.KeysReturning
	case types.Oracle:
		mode = types.KeysUnsupported
	}
	return &FakeConn{
		vendor:           vendor,
		keyMode:          mode,
		autoCommit:       true,
		statements:       make(map[string]*FakeStatement),
		setAutoCommitErr: make(map[bool]error),
	}
}

// WithKeyMode overrides the vendor's key mode.
func (c *FakeConn) WithKeyMode(mode types.KeyMode) *FakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyMode = mode
	return c
}

// OnPrepare returns the statement configuration for query, creating it on first use.
func (c *FakeConn) OnPrepare(query string) *FakeStatement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statementLocked(query)
}

func (c *FakeConn) statementLocked(query string) *FakeStatement {
	s, ok := c.statements[query]
	if !ok {
		s = &FakeStatement{conn: c, sql: query}
		c.statements[query] = s
	}
	return s
}

// WillFailSetAutoCommit makes SetAutoCommit(enabled) fail with err. The mode is left unchanged.
func (c *FakeConn) WillFailSetAutoCommit(enabled bool, err error) *FakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setAutoCommitErr[enabled] = err
	return c
}

// WillFailCommit makes Commit fail with err.
func (c *FakeConn) WillFailCommit(err error) *FakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commitErr = err
	return c
}

// WillFailRollback makes Rollback fail with err.
func (c *FakeConn) WillFailRollback(err error) *FakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollbackErr = err
	return c
}

// WillFailClose makes Close fail with err.
func (c *FakeConn) WillFailClose(err error) *FakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErr = err
	return c
}

// Prepare returns a handle on the statement configured for query.
func (c *FakeConn) Prepare(_ context.Context, query string) (types.Statement, error) {
	return c.prepare(query, false)
}

// PrepareWithKeys returns a handle whose executions expose the configured keys.
func (c *FakeConn) PrepareWithKeys(_ context.Context, query string) (types.Statement, error) {
	return c.prepare(query, true)
}

func (c *FakeConn) prepare(query string, keys bool) (types.Statement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, types.ErrConnClosed
	}
	if keys {
		c.calls = append(c.calls, "prepare_keys:"+query)
		if c.keyMode == types.KeysUnsupported {
			return nil, fmt.Errorf("%s: %w", c.vendor, types.ErrGeneratedKeysUnsupported)
		}
	} else {
		c.calls = append(c.calls, "prepare:"+query)
	}

	s := c.statementLocked(query)
	if s.prepareErr != nil {
		return nil, s.prepareErr
	}
	h := &stmtHandle{stmt: s, keys: keys}
	s.handles = append(s.handles, h)
	return h, nil
}

// AutoCommit reports the current auto-commit mode.
func (c *FakeConn) AutoCommit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoCommit
}

// SetAutoCommit records the switch and applies it unless configured to fail.
func (c *FakeConn) SetAutoCommit(_ context.Context, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return types.ErrConnClosed
	}
	c.calls = append(c.calls, fmt.Sprintf("set_auto_commit:%t", enabled))
	if err := c.setAutoCommitErr[enabled]; err != nil {
		return err
	}
	c.autoCommit = enabled
	return nil
}

// Commit records a commit.
func (c *FakeConn) Commit(_ context.Context) error {
	return c.record(CallCommit, c.commitErr)
}

// Rollback records a rollback.
func (c *FakeConn) Rollback(_ context.Context) error {
	return c.record(CallRollback, c.rollbackErr)
}

func (c *FakeConn) record(call string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return types.ErrConnClosed
	}
	c.calls = append(c.calls, call)
	return err
}

// Close marks the connection closed.
func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.calls = append(c.calls, CallClose)
	c.closed = true
	return c.closeErr
}

// DatabaseType returns the vendor.
func (c *FakeConn) DatabaseType() string {
	return c.vendor
}

// Calls returns a copy of the call log.
func (c *FakeConn) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.calls...)
}

// Closed reports whether Close was called.
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Reset clears the call log.
func (c *FakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

func (c *FakeConn) log(call string) {
	c.calls = append(c.calls, call)
}
