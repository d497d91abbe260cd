package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gaborage/go-dbaction/database/internal/scan"
	"github.com/gaborage/go-dbaction/database/types"
)

// Statement adapts a *sql.Stmt to types.Statement and keeps the generated keys
// of its last execution.
type Statement struct {
	stmt    *sql.Stmt
	keys    bool
	keyMode types.KeyMode

	// generated holds the key cursor of the last Exec, or the error deferred from
	// reading it
	generated    types.Rows
	generatedErr error
	closed       bool
}

var _ types.Statement = (*Statement)(nil)

// Exec runs the statement as an update. For statements prepared with keys on a
// RETURNING vendor the statement is executed as a query and its rows become the
// generated keys; RowsAffected is then unavailable.
func (s *Statement) Exec(ctx context.Context, args ...any) (types.Result, error) {
	if s.closed {
		return nil, types.ErrStmtClosed
	}
	s.resetKeys()

	if s.keys && s.keyMode == types.KeysReturning {
		rows, err := s.stmt.QueryContext(ctx, args...)
		if err != nil {
			return nil, err
		}
		s.generated = rows
		return returningResult{}, nil
	}

	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	if s.keys {
		s.generated, s.generatedErr = lastInsertKeys(res)
	}
	return res, nil
}

// Query runs the statement and returns its cursor.
func (s *Statement) Query(ctx context.Context, args ...any) (types.Rows, error) {
	if s.closed {
		return nil, types.ErrStmtClosed
	}
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GeneratedKeys returns the key cursor of the last Exec. The cursor is handed over
// once; a second call without an intervening Exec yields an empty cursor.
func (s *Statement) GeneratedKeys() (types.Rows, error) {
	if s.closed {
		return nil, types.ErrStmtClosed
	}
	if !s.keys {
		return nil, types.ErrKeysNotRequested
	}
	if s.generatedErr != nil {
		return nil, s.generatedErr
	}
	rows := s.generated
	s.generated = nil
	if rows == nil {
		return &keyRows{}, nil
	}
	return rows, nil
}

// Close releases the statement together with any unread key cursor.
func (s *Statement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.resetKeys()
	return s.stmt.Close()
}

func (s *Statement) resetKeys() {
	if s.generated != nil {
		_ = s.generated.Close()
	}
	s.generated = nil
	s.generatedErr = nil
}

// lastInsertKeys builds a single-row key cursor from a driver result. An update that
// touched no rows produced no key.
func lastInsertKeys(res sql.Result) (types.Rows, error) {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &keyRows{}, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read last insert id: %w", err)
	}
	return &keyRows{keys: []int64{id}}, nil
}

// returningResult is the result of an update executed through a RETURNING query.
type returningResult struct{}

var errRowsAffectedUnavailable = errors.New("rows affected is not available for statements returning generated keys")

func (returningResult) LastInsertId() (int64, error) {
	return 0, errors.New("last insert id is not available, read the generated keys instead")
}

func (returningResult) RowsAffected() (int64, error) {
	return 0, errRowsAffectedUnavailable
}

// keyRows is an in-memory single column cursor over generated keys.
type keyRows struct {
	keys []int64
	pos  int
}

func (r *keyRows) Next() bool {
	if r.pos >= len(r.keys) {
		return false
	}
	r.pos++
	return true
}

func (r *keyRows) Scan(dest ...any) error {
	if r.pos == 0 || r.pos > len(r.keys) {
		return errors.New("scan called without a current row")
	}
	if len(dest) != 1 {
		return fmt.Errorf("expected 1 destination argument in Scan, not %d", len(dest))
	}
	return scan.Assign(dest[0], r.keys[r.pos-1])
}

func (r *keyRows) Columns() ([]string, error) {
	return []string{"id"}, nil
}

func (r *keyRows) Err() error {
	return nil
}

func (r *keyRows) Close() error {
	r.pos = len(r.keys)
	return nil
}
