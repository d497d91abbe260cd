// Package rowtracker reports when a cursor is finished with.
package rowtracker

import (
	"sync"

	"github.com/gaborage/go-dbaction/database/types"
)

// Wrap returns rows decorated so that finish is called exactly once, when the cursor is
// closed, with the number of rows read and the iteration error, if any.
// A nil rows or finish returns rows unchanged.
func Wrap(rows types.Rows, finish func(read int64, err error)) types.Rows {
	if rows == nil || finish == nil {
		return rows
	}
	return &trackedRows{Rows: rows, finish: finish}
}

type trackedRows struct {
	types.Rows
	finish func(int64, error)
	read   int64
	once   sync.Once
}

func (r *trackedRows) Next() bool {
	if r.Rows.Next() {
		r.read++
		return true
	}
	return false
}

func (r *trackedRows) Close() error {
	err := r.Rows.Close()
	r.once.Do(func() {
		r.finish(r.read, r.Rows.Err())
	})
	return err
}
