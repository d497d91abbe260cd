package action

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/gaborage/go-dbaction/database/types"
	"github.com/gaborage/go-dbaction/internal/sqllex"
)

// PlaceholderFormat returns the bind placeholder style of a vendor:
// $1 for PostgreSQL, :1 for Oracle and ? for SQLite and anything else.
func PlaceholderFormat(vendor string) sq.PlaceholderFormat {
	switch vendor {
	case types.PostgreSQL:
		return sq.Dollar
	case types.Oracle:
		return sq.Colon
	default:
		return sq.Question
	}
}

// StatementBuilder returns a squirrel statement builder using the vendor's placeholders.
func StatementBuilder(vendor string) sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(PlaceholderFormat(vendor))
}

// Columns returns names ready for use as identifiers on vendor. Oracle reserved words
// such as NUMBER or LEVEL are double-quoted; other vendors get the names unchanged.
func Columns(vendor string, names ...string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		if vendor == types.Oracle {
			name = sqllex.QuoteOracle(name)
		}
		out[i] = name
	}
	return out
}

// built holds the output of Sqlizer.ToSql, taken once when the action is constructed.
type built struct {
	query string
	args  []any
	err   error
}

func build(b sq.Sqlizer) built {
	if b == nil {
		return built{err: fmt.Errorf("build statement: %w", ErrNilAction)}
	}
	query, args, err := b.ToSql()
	if err != nil {
		return built{err: fmt.Errorf("build statement: %w", err)}
	}
	return built{query: query, args: args}
}

func (b built) describe(suffix string) string {
	if b.err != nil {
		return "<invalid statement>" + suffix
	}
	return b.query + suffix
}

// UpdateFrom is Update with the statement text and arguments produced by a squirrel builder.
// A builder error is reported when the action is invoked and is not a *DBError.
func UpdateFrom(b sq.Sqlizer) *Chain[int64] {
	stmt := build(b)
	return newChain(stmt.describe(""), func(ctx context.Context, conn types.Conn) (int64, error) {
		if stmt.err != nil {
			return 0, stmt.err
		}
		return execUpdate(ctx, conn, stmt.query, stmt.args)
	})
}

// UpdateReturningKeyFrom is UpdateReturningKey with a squirrel builder.
func UpdateReturningKeyFrom(b sq.Sqlizer) *Chain[int64] {
	stmt := build(b)
	return newChain(stmt.describe(" -> key"), func(ctx context.Context, conn types.Conn) (int64, error) {
		if stmt.err != nil {
			return 0, stmt.err
		}
		return execReturningKey(ctx, conn, stmt.query, stmt.args)
	})
}

// QueryFrom is Query with a squirrel builder.
func QueryFrom[T any](b sq.Sqlizer, mapper RowMapper[T]) *Chain[[]T] {
	stmt := build(b)
	return newChain(stmt.describe(""), func(ctx context.Context, conn types.Conn) ([]T, error) {
		if stmt.err != nil {
			return nil, stmt.err
		}
		if mapper == nil {
			return nil, ErrNilAction
		}
		return runQuery(ctx, conn, stmt.query, mapper, stmt.args, -1)
	})
}
