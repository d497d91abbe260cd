package action

import (
	"context"

	"github.com/gaborage/go-dbaction/database/types"
)

// Query returns an action that runs query with args and maps every row with mapper.
// Rows are passed to the mapper in result order with indices starting at 0. An empty
// result yields an empty, non-nil slice.
func Query[T any](query string, mapper RowMapper[T], args ...any) *Chain[[]T] {
	return newChain(query, func(ctx context.Context, conn types.Conn) ([]T, error) {
		if mapper == nil {
			return nil, ErrNilAction
		}
		return runQuery(ctx, conn, query, mapper, args, -1)
	})
}

// QueryOne returns an action that yields the first mapped row of query. It fails with
// a *DBError wrapping ErrNoRows when the result is empty; further rows are not read.
func QueryOne[T any](query string, mapper RowMapper[T], args ...any) *Chain[T] {
	return newChain(query, func(ctx context.Context, conn types.Conn) (T, error) {
		var zero T
		if mapper == nil {
			return zero, ErrNilAction
		}
		items, err := runQuery(ctx, conn, query, mapper, args, 1)
		if err != nil {
			return zero, err
		}
		if len(items) == 0 {
			return zero, dbError(OpQuery, query, ErrNoRows)
		}
		return items[0], nil
	})
}

// runQuery collects at most limit mapped rows; a negative limit reads the whole cursor.
func runQuery[T any](ctx context.Context, conn types.Conn, query string, mapper RowMapper[T], args []any, limit int) ([]T, error) {
	stmt, err := conn.Prepare(ctx, query)
	if err != nil {
		return nil, dbError(OpPrepare, query, err)
	}
	defer closeQuietly(stmt)

	rows, err := stmt.Query(ctx, args...)
	if err != nil {
		return nil, dbError(OpQuery, query, err)
	}
	defer closeQuietly(rows)

	mapped := &mapperRows{Rows: rows, query: query}
	items := make([]T, 0)
	for i := 0; limit < 0 || i < limit; i++ {
		if !rows.Next() {
			break
		}
		item, err := mapper.MapRow(mapped, i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(OpQuery, query, err)
	}
	return items, nil
}

// mapperRows is the cursor handed to a RowMapper. Failures of the cursor itself are
// reported as scan failures; errors produced by the mapper's own logic pass through
// untouched, so Recover does not absorb them.
type mapperRows struct {
	types.Rows
	query string
}

func (r *mapperRows) Scan(dest ...any) error {
	if err := r.Rows.Scan(dest...); err != nil {
		return dbError(OpScan, r.query, err)
	}
	return nil
}

func (r *mapperRows) Columns() ([]string, error) {
	cols, err := r.Rows.Columns()
	if err != nil {
		return nil, dbError(OpScan, r.query, err)
	}
	return cols, nil
}

func (r *mapperRows) Err() error {
	if err := r.Rows.Err(); err != nil {
		return dbError(OpScan, r.query, err)
	}
	return nil
}
