package action

import (
	"errors"

	"github.com/gaborage/go-dbaction/database/types"
)

// RowMapper converts the current row of a cursor into a value. row is the zero-based
// index of the row within the result.
type RowMapper[T any] interface {
	MapRow(rows types.Rows, row int) (T, error)
}

// RowMapperFunc adapts a function to RowMapper.
type RowMapperFunc[T any] func(rows types.Rows, row int) (T, error)

// MapRow calls f.
func (f RowMapperFunc[T]) MapRow(rows types.Rows, row int) (T, error) {
	return f(rows, row)
}

// SingleColumn maps the first column of each row to T, ignoring the others.
func SingleColumn[T any]() RowMapper[T] {
	return RowMapperFunc[T](func(rows types.Rows, _ int) (T, error) {
		var v T
		if err := scanFirst(rows, &v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	})
}

// scanFirst scans the first column of the current row into dest and discards the rest.
func scanFirst(rows types.Rows, dest any) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return errors.New("result has no columns")
	}
	targets := make([]any, len(cols))
	targets[0] = dest
	for i := 1; i < len(targets); i++ {
		targets[i] = new(any)
	}
	return rows.Scan(targets...)
}
