package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-dbaction/database/types"
)

const testUpdate = "UPDATE accounts SET balance = ? WHERE id = ?"

func TestFakeConnRecordsCallsInOrder(t *testing.T) {
	ctx := context.Background()
	conn := NewFakeConn(types.SQLite)
	conn.OnPrepare(testUpdate).WillReturnRowsAffected(1)

	require.NoError(t, conn.SetAutoCommit(ctx, false))
	stmt, err := conn.Prepare(ctx, testUpdate)
	require.NoError(t, err)
	res, err := stmt.Exec(ctx, 10, 1)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, stmt.Close())
	require.NoError(t, conn.Commit(ctx))
	require.NoError(t, conn.SetAutoCommit(ctx, true))

	AssertCalls(t, conn,
		"set_auto_commit:false",
		"prepare:"+testUpdate,
		"exec:"+testUpdate,
		"close_stmt:"+testUpdate,
		CallCommit,
		"set_auto_commit:true",
	)
	AssertStatementsClosed(t, conn)
	assert.Equal(t, []any{10, 1}, conn.OnPrepare(testUpdate).Args(0))
	assert.True(t, conn.AutoCommit())
}

func TestFakeConnSetAutoCommitFailureKeepsMode(t *testing.T) {
	boom := errors.New("boom")
	conn := NewFakeConn(types.SQLite).WillFailSetAutoCommit(false, boom)

	err := conn.SetAutoCommit(context.Background(), false)

	assert.ErrorIs(t, err, boom)
	assert.True(t, conn.AutoCommit())
}

func TestFakeConnUnsupportedKeys(t *testing.T) {
	conn := NewFakeConn(types.Oracle)

	_, err := conn.PrepareWithKeys(context.Background(), "INSERT INTO t VALUES (1)")

	assert.ErrorIs(t, err, types.ErrGeneratedKeysUnsupported)
}

func TestFakeConnGeneratedKeys(t *testing.T) {
	ctx := context.Background()
	conn := NewFakeConn(types.PostgreSQL)
	conn.OnPrepare("INSERT").WillReturnKey(int64(42))

	stmt, err := conn.PrepareWithKeys(ctx, "INSERT")
	require.NoError(t, err)
	_, err = stmt.Exec(ctx)
	require.NoError(t, err)

	keys, err := stmt.GeneratedKeys()
	require.NoError(t, err)
	require.True(t, keys.Next())
	var id int64
	require.NoError(t, keys.Scan(&id))
	assert.Equal(t, int64(42), id)
	assert.False(t, keys.Next())
	assert.True(t, conn.OnPrepare("INSERT").KeysRequested())
}

func TestFakeConnKeysNotRequested(t *testing.T) {
	ctx := context.Background()
	conn := NewFakeConn(types.SQLite)

	stmt, err := conn.Prepare(ctx, "INSERT")
	require.NoError(t, err)
	_, err = stmt.GeneratedKeys()

	assert.ErrorIs(t, err, types.ErrKeysNotRequested)
}

func TestFakeConnClosed(t *testing.T) {
	ctx := context.Background()
	conn := NewFakeConn(types.SQLite)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err := conn.Prepare(ctx, "SELECT 1")
	assert.ErrorIs(t, err, types.ErrConnClosed)
	assert.ErrorIs(t, conn.Commit(ctx), types.ErrConnClosed)
	AssertCallCount(t, conn, CallClose, 1)
}

func TestFakeStatementConfiguredFailures(t *testing.T) {
	ctx := context.Background()
	prepareErr := errors.New("prepare")
	execErr := errors.New("exec")
	conn := NewFakeConn(types.SQLite)
	conn.OnPrepare("A").WillFailPrepare(prepareErr)
	conn.OnPrepare("B").WillFailExec(execErr)

	_, err := conn.Prepare(ctx, "A")
	assert.ErrorIs(t, err, prepareErr)

	stmt, err := conn.Prepare(ctx, "B")
	require.NoError(t, err)
	_, err = stmt.Exec(ctx, 1)
	assert.ErrorIs(t, err, execErr)
	assert.Equal(t, 1, conn.OnPrepare("B").ExecCount())
}

func TestRowSetCursor(t *testing.T) {
	rs := NewRowSet("id", "name").AddRow(int64(1), "Alice").AddRow(int64(2), "Bob")

	rows := rs.Rows()
	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)

	var names []string
	for rows.Next() {
		var id int
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Alice", "Bob"}, names)

	// a second cursor starts from the beginning
	assert.True(t, rs.Rows().Next())
}

func TestRowSetFailAt(t *testing.T) {
	boom := errors.New("connection reset")
	rows := NewRowSet("id").AddRow(1).AddRow(2).FailAt(1, boom).Rows()

	assert.True(t, rows.Next())
	assert.False(t, rows.Next())
	assert.ErrorIs(t, rows.Err(), boom)
}

func TestRowSetScanMismatch(t *testing.T) {
	rows := NewRowSet("a", "b").AddRow(1, 2).Rows()
	require.True(t, rows.Next())

	var a int
	assert.Error(t, rows.Scan(&a))
}

func TestAddRowPanicsOnMismatch(t *testing.T) {
	assert.Panics(t, func() {
		NewRowSet("a", "b").AddRow(1)
	})
}
