package testing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gaborage/go-dbaction/database/internal/scan"
	"github.com/gaborage/go-dbaction/database/types"
)

// RowSet is an in-memory result set. Every call to Rows returns a fresh cursor over it,
// so one RowSet can answer several executions.
//
//	rows := NewRowSet("id", "name").
//	    AddRow(1, "Alice").
//	    AddRow(2, "Bob")
type RowSet struct {
	columns []string
	rows    [][]any

	failAt  int
	failErr error
}

// NewRowSet creates an empty RowSet with the given column names.
func NewRowSet(columns ...string) *RowSet {
	return &RowSet{
		columns: columns,
		rows:    make([][]any, 0),
		failAt:  -1,
	}
}

// AddRow appends a row. It panics when the value count differs from the column count.
func (rs *RowSet) AddRow(values ...any) *RowSet {
	if len(values) != len(rs.columns) {
		panic(fmt.Sprintf("AddRow: expected %d values for columns %v, got %d",
			len(rs.columns), rs.columns, len(values)))
	}
	rs.rows = append(rs.rows, values)
	return rs
}

// AddRows appends count rows produced by generator.
func (rs *RowSet) AddRows(count int, generator func(i int) []any) *RowSet {
	for i := 0; i < count; i++ {
		rs.AddRow(generator(i)...)
	}
	return rs
}

// FailAt makes cursors stop before row index row and report err from Err.
func (rs *RowSet) FailAt(row int, err error) *RowSet {
	rs.failAt = row
	rs.failErr = err
	return rs
}

// RowCount returns the number of rows.
func (rs *RowSet) RowCount() int {
	return len(rs.rows)
}

// Columns returns a copy of the column names.
func (rs *RowSet) Columns() []string {
	return append([]string{}, rs.columns...)
}

// Rows returns a new cursor positioned before the first row.
func (rs *RowSet) Rows() *FakeRows {
	return &FakeRows{set: rs, pos: -1}
}

// FakeRows is a cursor over a RowSet implementing types.Rows.
type FakeRows struct {
	mu     sync.Mutex
	set    *RowSet
	pos    int
	err    error
	closed bool
}

var _ types.Rows = (*FakeRows)(nil)

var errNoCurrentRow = errors.New("scan called without a current row")

// Next advances the cursor.
func (r *FakeRows) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.err != nil {
		return false
	}
	next := r.pos + 1
	if r.set.failAt >= 0 && next == r.set.failAt {
		r.err = r.set.failErr
		return false
	}
	if next >= len(r.set.rows) {
		r.pos = len(r.set.rows)
		return false
	}
	r.pos = next
	return true
}

// Scan copies the current row into dest using database/sql conversion rules.
func (r *FakeRows) Scan(dest ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("rows are closed")
	}
	if r.pos < 0 || r.pos >= len(r.set.rows) {
		return errNoCurrentRow
	}
	row := r.set.rows[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(row), len(dest))
	}
	for i, v := range row {
		if err := scan.Assign(dest[i], v); err != nil {
			return fmt.Errorf("scan column %d (%s): %w", i, r.set.columns[i], err)
		}
	}
	return nil
}

// Columns returns the column names.
func (r *FakeRows) Columns() ([]string, error) {
	return r.set.Columns(), nil
}

// Err returns the failure configured with RowSet.FailAt once the cursor reached it.
func (r *FakeRows) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close marks the cursor closed.
func (r *FakeRows) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed reports whether Close was called.
func (r *FakeRows) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
