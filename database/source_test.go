package database

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"sync/atomic"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	dbtesting "github.com/gaborage/go-dbaction/database/testing"
	"github.com/gaborage/go-dbaction/database/types"
	"github.com/gaborage/go-dbaction/logger"
)

func TestAcquireError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&AcquireError{Source: "pool(postgresql)", Err: cause})

	assert.ErrorIs(t, err, ErrAcquire)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "acquire connection from pool(postgresql): connection refused", err.Error())

	var acquireErr *AcquireError
	require.ErrorAs(t, err, &acquireErr)
	assert.Equal(t, "pool(postgresql)", acquireErr.Source)
}

func TestSourceFunc(t *testing.T) {
	fake := dbtesting.NewFakeConn(types.SQLite)
	source := SourceFunc(func(context.Context) (types.Conn, error) { return fake, nil })

	conn, err := source.Get(context.Background())

	require.NoError(t, err)
	assert.Same(t, fake, conn)
}

func TestPoolSourceHandsOutAdapters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPrepare(regexp.QuoteMeta(testReturning)).
		ExpectQuery().WithArgs("a").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	source := NewPoolSource(db, PostgreSQL)
	conn, err := source.Get(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	adapter, ok := conn.(*Conn)
	require.True(t, ok)
	assert.Equal(t, types.KeysReturning, adapter.keyMode)
	assert.Equal(t, "pool(postgresql)", source.String())
	assert.Same(t, db, source.DB())

	stmt, err := conn.PrepareWithKeys(context.Background(), testReturning)
	require.NoError(t, err)
	defer stmt.Close()
	_, err = stmt.Exec(context.Background(), "a")
	require.NoError(t, err)
	keys, err := stmt.GeneratedKeys()
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, readKeys(t, keys))
}

func TestPoolSourceOptions(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	source := NewPoolSource(db, PostgreSQL,
		WithKeyMode(types.KeysUnsupported),
		WithLogger(logger.NewWithWriter(&buf, "debug", false)),
		WithTracking(NewTrackingSettings(nil)),
	)
	conn, err := source.Get(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	tracked, ok := conn.(*TrackedConn)
	require.True(t, ok)
	adapter, ok := tracked.Unwrap().(*Conn)
	require.True(t, ok)
	assert.Equal(t, types.KeysUnsupported, adapter.keyMode)
	assert.Contains(t, buf.String(), "Acquired pooled connection")
}

func TestPoolSourceClosedPool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	require.NoError(t, db.Close())

	_, err = NewPoolSource(db, SQLite).Get(context.Background())

	assert.ErrorIs(t, err, ErrAcquire)
}

func TestDriverSourceUnknownDriver(t *testing.T) {
	_, err := NewDriverSource("no-such-driver", "dsn", SQLite).Get(context.Background())

	assert.ErrorIs(t, err, ErrAcquire)
	assert.Contains(t, err.Error(), "driver(no-such-driver)")
}

func TestCachingSourceReturnsSameConnection(t *testing.T) {
	var calls atomic.Int32
	source := NewCachingSource(SourceFunc(func(context.Context) (types.Conn, error) {
		calls.Add(1)
		return dbtesting.NewFakeConn(types.SQLite), nil
	}))

	first, err := source.Get(context.Background())
	require.NoError(t, err)
	second, err := source.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, source.Cached())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachingSourceConcurrentFirstCalls(t *testing.T) {
	var calls atomic.Int32
	source := NewCachingSource(SourceFunc(func(context.Context) (types.Conn, error) {
		calls.Add(1)
		return dbtesting.NewFakeConn(types.SQLite), nil
	}))

	const workers = 32
	conns := make([]types.Conn, workers)
	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			conn, err := source.Get(context.Background())
			conns[i] = conn
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), calls.Load())
	for _, c := range conns {
		assert.Same(t, conns[0], c)
	}
}

func TestCachingSourceRetriesAfterFailure(t *testing.T) {
	boom := errors.New("network unreachable")
	fake := dbtesting.NewFakeConn(types.SQLite)
	var calls atomic.Int32
	source := NewCachingSource(SourceFunc(func(context.Context) (types.Conn, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return fake, nil
	}))

	_, err := source.Get(context.Background())
	assert.ErrorIs(t, err, ErrAcquire)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, source.Cached())

	conn, err := source.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, fake, conn)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachingSourceKeepsInnerAcquireError(t *testing.T) {
	inner := &AcquireError{Source: "pool(sqlite)", Err: errors.New("locked")}
	source := NewCachingSource(SourceFunc(func(context.Context) (types.Conn, error) {
		return nil, inner
	}))

	_, err := source.Get(context.Background())

	assert.Same(t, inner, err)
}

func TestCachingSourceNeverClosesCachedConnection(t *testing.T) {
	fake := dbtesting.NewFakeConn(types.SQLite)
	source := NewCachingSource(SourceFunc(func(context.Context) (types.Conn, error) { return fake, nil }))

	for range 3 {
		_, err := source.Get(context.Background())
		require.NoError(t, err)
	}

	assert.False(t, fake.Closed())
	assert.Equal(t, "caching(database.SourceFunc)", source.String())
}
