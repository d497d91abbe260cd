package action

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/gaborage/go-dbaction/database/types"
)

// Update returns an action that executes query with args bound in order and yields
// the number of affected rows.
func Update(query string, args ...any) *Chain[int64] {
	return newChain(query, func(ctx context.Context, conn types.Conn) (int64, error) {
		return execUpdate(ctx, conn, query, args)
	})
}

func execUpdate(ctx context.Context, conn types.Conn, query string, args []any) (int64, error) {
	stmt, err := conn.Prepare(ctx, query)
	if err != nil {
		return 0, dbError(OpPrepare, query, err)
	}
	defer closeQuietly(stmt)

	res, err := stmt.Exec(ctx, args...)
	if err != nil {
		return 0, dbError(OpExec, query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError(OpExec, query, err)
	}
	return n, nil
}

// UpdateReturningKey returns an action that executes query with args and yields the
// first generated key. It fails with types.ErrNoGeneratedKey when no key was produced.
//
// On PostgreSQL the statement must carry a RETURNING clause naming the key column.
func UpdateReturningKey(query string, args ...any) *Chain[int64] {
	return newChain(query+" -> key", func(ctx context.Context, conn types.Conn) (int64, error) {
		return execReturningKey(ctx, conn, query, args)
	})
}

func execReturningKey(ctx context.Context, conn types.Conn, query string, args []any) (int64, error) {
	stmt, err := conn.PrepareWithKeys(ctx, query)
	if err != nil {
		return 0, dbError(OpPrepare, query, err)
	}
	defer closeQuietly(stmt)

	if _, err := stmt.Exec(ctx, args...); err != nil {
		return 0, dbError(OpExec, query, err)
	}

	keys, err := stmt.GeneratedKeys()
	if err != nil {
		return 0, dbError(OpKeys, query, err)
	}
	defer closeQuietly(keys)

	if !keys.Next() {
		if err := keys.Err(); err != nil {
			return 0, dbError(OpKeys, query, err)
		}
		return 0, dbError(OpKeys, query, types.ErrNoGeneratedKey)
	}
	var raw any
	if err := scanFirst(keys, &raw); err != nil {
		return 0, dbError(OpKeys, query, err)
	}
	return toInt64(raw)
}

// toInt64 converts a generated key reported by a driver.
func toInt64(v any) (int64, error) {
	switch k := v.(type) {
	case int64:
		return k, nil
	case int:
		return int64(k), nil
	case int32:
		return int64(k), nil
	case int16:
		return int64(k), nil
	case int8:
		return int64(k), nil
	case uint64:
		if k > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedKeyType, k)
		}
		return int64(k), nil
	case uint:
		if uint64(k) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedKeyType, k)
		}
		return int64(k), nil
	case uint32:
		return int64(k), nil
	case uint16:
		return int64(k), nil
	case uint8:
		return int64(k), nil
	case []byte:
		return parseKey(string(k))
	case string:
		return parseKey(k)
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, v)
	}
}

func parseKey(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrUnsupportedKeyType, s)
	}
	return n, nil
}

type closer interface {
	Close() error
}

// closeQuietly releases a statement or cursor. A close failure never replaces the
// outcome of the operation that used the resource.
func closeQuietly(c closer) {
	_ = c.Close()
}
