package action

import (
	"context"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbtesting "github.com/gaborage/go-dbaction/database/testing"
	"github.com/gaborage/go-dbaction/database/types"
)

func TestPlaceholderFormat(t *testing.T) {
	tests := []struct {
		vendor string
		want   string
	}{
		{vendor: types.PostgreSQL, want: "UPDATE t SET v = $1 WHERE id = $2"},
		{vendor: types.Oracle, want: "UPDATE t SET v = :1 WHERE id = :2"},
		{vendor: types.SQLite, want: "UPDATE t SET v = ? WHERE id = ?"},
	}

	for _, tt := range tests {
		t.Run(tt.vendor, func(t *testing.T) {
			query, args, err := StatementBuilder(tt.vendor).
				Update("t").
				Set("v", "x").
				Where(sq.Eq{"id": 1}).
				ToSql()

			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Equal(t, []any{"x", 1}, args)
		})
	}
}

func TestUpdateFromMatchesHandWritten(t *testing.T) {
	const handWritten = "DELETE FROM t WHERE id = ?"
	ctx := context.Background()

	builtConn := dbtesting.NewFakeConn(types.SQLite)
	builtConn.OnPrepare(handWritten).WillReturnRowsAffected(1)
	manual := dbtesting.NewFakeConn(types.SQLite)
	manual.OnPrepare(handWritten).WillReturnRowsAffected(1)

	action := UpdateFrom(StatementBuilder(types.SQLite).Delete("t").Where(sq.Eq{"id": 5}))
	n1, err := action.Invoke(ctx, builtConn)
	require.NoError(t, err)
	n2, err := Update(handWritten, 5).Invoke(ctx, manual)
	require.NoError(t, err)

	assert.Equal(t, n2, n1)
	assert.Equal(t, handWritten, action.String())
	assert.Equal(t, manual.Calls(), builtConn.Calls())
	assert.Equal(t, manual.OnPrepare(handWritten).Args(0), builtConn.OnPrepare(handWritten).Args(0))
}

func TestUpdateReturningKeyFrom(t *testing.T) {
	const want = "INSERT INTO t (name) VALUES ($1) RETURNING id"
	conn := dbtesting.NewFakeConn(types.PostgreSQL)
	conn.OnPrepare(want).WillReturnKey(int64(82))

	action := UpdateReturningKeyFrom(StatementBuilder(types.PostgreSQL).
		Insert("t").
		Columns("name").
		Values("a").
		Suffix("RETURNING id"))
	key, err := action.Invoke(context.Background(), conn)

	require.NoError(t, err)
	assert.Equal(t, int64(82), key)
	assert.Equal(t, want+" -> key", action.String())
	assert.Equal(t, []any{"a"}, conn.OnPrepare(want).Args(0))
}

func TestQueryFrom(t *testing.T) {
	const want = "SELECT id, name FROM users WHERE active = ?"
	conn := dbtesting.NewFakeConn(types.SQLite)
	conn.OnPrepare(want).WillReturnRows(usersRowSet())

	users, err := QueryFrom[user](
		StatementBuilder(types.SQLite).Select("id", "name").From("users").Where(sq.Eq{"active": true}),
		userMapper,
	).Invoke(context.Background(), conn)

	require.NoError(t, err)
	assert.Equal(t, []user{{1, "Alice"}, {2, "Bob"}}, users)
	assert.Equal(t, []any{true}, conn.OnPrepare(want).Args(0))
}

func TestBuilderErrorSurfacesOnInvoke(t *testing.T) {
	conn := dbtesting.NewFakeConn(types.SQLite)
	broken := UpdateFrom(sq.Update(""))

	assert.Equal(t, "<invalid statement>", broken.String())

	_, err := broken.Invoke(context.Background(), conn)
	assert.ErrorContains(t, err, "build statement")
	assert.False(t, IsDBError(err))
	assert.Empty(t, conn.Calls())

	_, err = RecoverZero[int64](broken).Invoke(context.Background(), conn)
	assert.ErrorContains(t, err, "build statement", "builder errors are not database failures")

	_, err = QueryFrom[user](sq.Select(), userMapper).Invoke(context.Background(), conn)
	assert.ErrorContains(t, err, "build statement")

	_, err = UpdateReturningKeyFrom(nil).Invoke(context.Background(), conn)
	assert.ErrorIs(t, err, ErrNilAction)
}

func TestColumnsQuotesOracleReservedWords(t *testing.T) {
	assert.Equal(t, []string{"id", `"NUMBER"`, `"LEVEL"`}, Columns(types.Oracle, "id", "number", "level"))
	assert.Equal(t, []string{"id", "number"}, Columns(types.PostgreSQL, "id", "number"))

	query, _, err := StatementBuilder(types.Oracle).
		Insert("accounts").
		Columns(Columns(types.Oracle, "id", "number")...).
		Values(1, "12345").
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO accounts (id,"NUMBER") VALUES (:1,:2)`, query)
}
