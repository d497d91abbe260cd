package tracking

import (
	"context"
	"time"

	"github.com/gaborage/go-dbaction/database/internal/rowtracker"
	"github.com/gaborage/go-dbaction/database/types"
)

// Statement wraps a types.Statement and tracks its executions.
type Statement struct {
	stmt  types.Statement
	tc    *Context
	query string
}

var _ types.Statement = (*Statement)(nil)

// NewStatement returns stmt decorated with tracking; query labels its log entries.
func NewStatement(stmt types.Statement, tc *Context, query string) *Statement {
	return &Statement{stmt: stmt, tc: tc, query: query}
}

// Exec runs the statement with tracking
func (s *Statement) Exec(ctx context.Context, args ...any) (types.Result, error) {
	start := time.Now()
	res, err := s.stmt.Exec(ctx, args...)
	Track(ctx, s.tc, s.query, args, start, rowsAffected(res, err), err)
	return res, err
}

// Query runs the statement with tracking. A failed query is tracked at once; otherwise
// the entry is written when the cursor is closed, covering the whole iteration and
// reporting the number of rows read.
func (s *Statement) Query(ctx context.Context, args ...any) (types.Rows, error) {
	start := time.Now()
	rows, err := s.stmt.Query(ctx, args...)
	if err != nil {
		Track(ctx, s.tc, s.query, args, start, 0, err)
		return nil, err
	}
	return rowtracker.Wrap(rows, func(read int64, iterErr error) {
		Track(ctx, s.tc, s.query, args, start, read, iterErr)
	}), nil
}

// GeneratedKeys returns the keys of the last execution (no tracking needed)
func (s *Statement) GeneratedKeys() (types.Rows, error) {
	return s.stmt.GeneratedKeys()
}

// Close closes the statement (no tracking needed)
func (s *Statement) Close() error {
	return s.stmt.Close()
}

// rowsAffected extracts the affected row count for metrics; 0 when unavailable.
func rowsAffected(res types.Result, err error) int64 {
	if res == nil || err != nil {
		return 0
	}
	n, affErr := res.RowsAffected()
	if affErr != nil {
		return 0
	}
	return n
}
