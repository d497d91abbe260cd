package action

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-dbaction/database"
	dbtesting "github.com/gaborage/go-dbaction/database/testing"
	"github.com/gaborage/go-dbaction/database/types"
	"github.com/gaborage/go-dbaction/logger"
)

func fakeSource(conn types.Conn) database.SourceFunc {
	return func(context.Context) (types.Conn, error) {
		return conn, nil
	}
}

func TestRunInvokesActionOnAcquiredConnection(t *testing.T) {
	conn := dbtesting.NewFakeConn(types.SQLite)
	conn.OnPrepare(deleteByID).WillReturnRowsAffected(1)

	n, err := Run(context.Background(), Update(deleteByID, 5), fakeSource(conn))

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, conn.Closed(), "the runner leaves the connection to its source")
	dbtesting.AssertNoCall(t, conn, dbtesting.CallClose)
}

func TestRunWrapsAcquisitionFailure(t *testing.T) {
	cause := errors.New("connection refused")
	source := database.SourceFunc(func(context.Context) (types.Conn, error) {
		return nil, &database.AcquireError{Source: "pool(sqlite)", Err: cause}
	})

	_, err := Run(context.Background(), Update(deleteByID, 5), source)

	assert.ErrorIs(t, err, ErrRun)
	assert.ErrorIs(t, err, database.ErrAcquire)
	assert.ErrorIs(t, err, cause)
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, deleteByID, runErr.Action)
	assert.Contains(t, err.Error(), "run "+deleteByID)
}

func TestRunWrapsActionFailure(t *testing.T) {
	conn := dbtesting.NewFakeConn(types.SQLite)
	conn.OnPrepare(deleteByID).WillFailExec(errBoom)

	_, err := Run(context.Background(), Tx(Update(deleteByID, 5)), fakeSource(conn))

	assert.ErrorIs(t, err, ErrRun)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, database.ErrAcquire)
	var dbErr *DBError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, OpExec, dbErr.Op)
}

func TestRunWrapsTxFailure(t *testing.T) {
	rollbackErr := errors.New("rollback refused")
	conn := dbtesting.NewFakeConn(types.SQLite).WillFailRollback(rollbackErr)
	conn.OnPrepare(deleteByID).WillFailExec(errBoom)

	_, err := Run(context.Background(), Tx(Update(deleteByID, 5)), fakeSource(conn))

	var txErr *TxError
	require.ErrorAs(t, err, &txErr)
	assert.ErrorIs(t, err, ErrRun)
	assert.ErrorIs(t, err, rollbackErr)
}

func TestRunNilArguments(t *testing.T) {
	conn := dbtesting.NewFakeConn(types.SQLite)

	_, err := Run[int64](context.Background(), nil, fakeSource(conn))
	assert.ErrorIs(t, err, ErrRun)
	assert.ErrorIs(t, err, ErrNilAction)

	_, err = Run(context.Background(), Update(deleteByID), nil)
	assert.ErrorIs(t, err, ErrRun)
	assert.ErrorIs(t, err, database.ErrAcquire)
}

func TestRunWithLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	conn := dbtesting.NewFakeConn(types.SQLite)
	conn.OnPrepare(deleteByID).WillFailExec(errBoom)

	_, err := RunWith(context.Background(), Update(deleteByID, 5), fakeSource(conn),
		logger.NewWithWriter(&buf, "debug", false))

	require.Error(t, err)
	assert.Contains(t, buf.String(), "Action failed")
	assert.Contains(t, buf.String(), `"action":"DELETE FROM t WHERE id=?"`)
}

func TestRunWithLogsCompletion(t *testing.T) {
	var buf bytes.Buffer
	conn := dbtesting.NewFakeConn(types.SQLite)

	_, err := RunWith(context.Background(), Update(deleteByID, 5), fakeSource(conn),
		logger.NewWithWriter(&buf, "debug", false))

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Action completed")
}

func TestMustRun(t *testing.T) {
	conn := dbtesting.NewFakeConn(types.SQLite)
	conn.OnPrepare(deleteByID).WillReturnRowsAffected(3)

	assert.Equal(t, int64(3), MustRun(context.Background(), Update(deleteByID, 5), fakeSource(conn)))

	conn.OnPrepare(sqlA).WillFailExec(errBoom)
	assert.Panics(t, func() {
		MustRun(context.Background(), Update(sqlA), fakeSource(conn))
	})
}
