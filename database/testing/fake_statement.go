package testing

import (
	"context"

	"github.com/gaborage/go-dbaction/database/types"
)

// FakeStatement configures how statements prepared for one SQL text behave and records
// their executions.
type FakeStatement struct {
	conn *FakeConn
	sql  string

	rowsAffected int64
	lastInsertID int64
	rows         *RowSet
	keys         *RowSet

	prepareErr error
	execErr    error
	queryErr   error
	keysErr    error
	closeErr   error

	handles []*stmtHandle
	args    [][]any
	cursors []*FakeRows
}

// WillReturnRowsAffected sets the affected row count reported by Exec.
func (s *FakeStatement) WillReturnRowsAffected(n int64) *FakeStatement {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.rowsAffected = n
	return s
}

// WillReturnLastInsertID sets the value reported by Result.LastInsertId.
func (s *FakeStatement) WillReturnLastInsertID(id int64) *FakeStatement {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.lastInsertID = id
	return s
}

// WillReturnRows sets the result set returned by Query.
func (s *FakeStatement) WillReturnRows(rows *RowSet) *FakeStatement {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.rows = rows
	return s
}

// WillReturnKeys sets the generated keys exposed after Exec on a key-returning handle.
func (s *FakeStatement) WillReturnKeys(keys *RowSet) *FakeStatement {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.keys = keys
	return s
}

// WillReturnKey is shorthand for a single generated key in an "id" column.
func (s *FakeStatement) WillReturnKey(key any) *FakeStatement {
	return s.WillReturnKeys(NewRowSet("id").AddRow(key))
}

// WillFailPrepare makes Prepare fail with err.
func (s *FakeStatement) WillFailPrepare(err error) *FakeStatement {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.prepareErr = err
	return s
}

// WillFailExec makes Exec fail with err.
func (s *FakeStatement) WillFailExec(err error) *FakeStatement {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.execErr = err
	return s
}

// WillFailQuery makes Query fail with err.
func (s *FakeStatement) WillFailQuery(err error) *FakeStatement {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.queryErr = err
	return s
}

// WillFailKeys makes GeneratedKeys fail with err.
func (s *FakeStatement) WillFailKeys(err error) *FakeStatement {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.keysErr = err
	return s
}

// WillFailClose makes Close fail with err.
func (s *FakeStatement) WillFailClose(err error) *FakeStatement {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.closeErr = err
	return s
}

// SQL returns the statement text.
func (s *FakeStatement) SQL() string {
	return s.sql
}

// ExecCount returns the number of Exec and Query executions.
func (s *FakeStatement) ExecCount() int {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return len(s.args)
}

// Args returns the arguments bound by execution i.
func (s *FakeStatement) Args(i int) []any {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	if i < 0 || i >= len(s.args) {
		return nil
	}
	return append([]any{}, s.args[i]...)
}

// PrepareCount returns how often the statement was prepared.
func (s *FakeStatement) PrepareCount() int {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return len(s.handles)
}

// Closed reports whether every prepared handle was closed.
func (s *FakeStatement) Closed() bool {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	for _, h := range s.handles {
		if !h.closed {
			return false
		}
	}
	return len(s.handles) > 0
}

// KeysRequested reports whether any handle was prepared for generated keys.
func (s *FakeStatement) KeysRequested() bool {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	for _, h := range s.handles {
		if h.keys {
			return true
		}
	}
	return false
}

// Cursors returns the cursors handed out by Query, oldest first.
func (s *FakeStatement) Cursors() []*FakeRows {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return append([]*FakeRows{}, s.cursors...)
}

// stmtHandle is one prepared instance of a FakeStatement.
type stmtHandle struct {
	stmt      *FakeStatement
	keys      bool
	closed    bool
	generated *FakeRows
}

var _ types.Statement = (*stmtHandle)(nil)

func (h *stmtHandle) Exec(_ context.Context, args ...any) (types.Result, error) {
	s := h.stmt
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()

	if h.closed {
		return nil, types.ErrStmtClosed
	}
	s.conn.log("exec:" + s.sql)
	s.args = append(s.args, append([]any{}, args...))
	h.generated = nil
	if s.execErr != nil {
		return nil, s.execErr
	}
	if h.keys && s.keys != nil {
		h.generated = s.keys.Rows()
	}
	return fakeResult{rowsAffected: s.rowsAffected, lastInsertID: s.lastInsertID}, nil
}

func (h *stmtHandle) Query(_ context.Context, args ...any) (types.Rows, error) {
	s := h.stmt
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()

	if h.closed {
		return nil, types.ErrStmtClosed
	}
	s.conn.log("query:" + s.sql)
	s.args = append(s.args, append([]any{}, args...))
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	set := s.rows
	if set == nil {
		set = NewRowSet()
	}
	rows := set.Rows()
	s.cursors = append(s.cursors, rows)
	return rows, nil
}

func (h *stmtHandle) GeneratedKeys() (types.Rows, error) {
	s := h.stmt
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()

	if h.closed {
		return nil, types.ErrStmtClosed
	}
	if !h.keys {
		return nil, types.ErrKeysNotRequested
	}
	if s.keysErr != nil {
		return nil, s.keysErr
	}
	rows := h.generated
	h.generated = nil
	if rows == nil {
		rows = NewRowSet("id").Rows()
	}
	s.cursors = append(s.cursors, rows)
	return rows, nil
}

func (h *stmtHandle) Close() error {
	s := h.stmt
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	s.conn.log("close_stmt:" + s.sql)
	return s.closeErr
}

type fakeResult struct {
	rowsAffected int64
	lastInsertID int64
}

func (r fakeResult) LastInsertId() (int64, error) {
	return r.lastInsertID, nil
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
