//go:build integration

package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-dbaction/database"
	"github.com/gaborage/go-dbaction/logger"
	"github.com/gaborage/go-dbaction/testing/containers"
)

func TestPostgreSQLActions(t *testing.T) {
	ctx := context.Background()
	pg := containers.StartPostgreSQL(ctx, t, nil)

	cfg := pg.DatabaseConfig()
	cfg.Source.Cache = true
	source, err := database.NewSource(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = source.Close() })

	qb := StatementBuilder(source.Vendor())
	_, err = Run(ctx, Update("CREATE TABLE accounts (id BIGSERIAL PRIMARY KEY, owner TEXT NOT NULL, balance BIGINT NOT NULL CHECK (balance >= 0))"), source)
	require.NoError(t, err)

	t.Run("generated keys via returning", func(t *testing.T) {
		insert := "INSERT INTO accounts (owner, balance) VALUES ($1, $2) RETURNING id"
		first, err := Run(ctx, UpdateReturningKey(insert, "alice", 100), source)
		require.NoError(t, err)
		second, err := Run(ctx, UpdateReturningKeyFrom(
			qb.Insert("accounts").Columns("owner", "balance").Values("bob", 50).Suffix("RETURNING id"),
		), source)
		require.NoError(t, err)

		assert.Equal(t, int64(1), first)
		assert.Equal(t, int64(2), second)
	})

	t.Run("transaction commits", func(t *testing.T) {
		transfer := Tx(
			Update("UPDATE accounts SET balance = balance - $1 WHERE id = $2", 30, 1).
				ThenDiscard(Update("UPDATE accounts SET balance = balance + $1 WHERE id = $2", 30, 2)),
		)
		_, err := Run(ctx, transfer, source)
		require.NoError(t, err)

		balances, err := Run(ctx, Query("SELECT balance FROM accounts ORDER BY id", SingleColumn[int64]()), source)
		require.NoError(t, err)
		assert.Equal(t, []int64{70, 80}, balances)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		overdraw := Tx(
			Update("UPDATE accounts SET balance = balance + $1 WHERE id = $2", 500, 1).
				ThenDiscard(Update("UPDATE accounts SET balance = balance - $1 WHERE id = $2", 500, 2)),
		)
		_, err := Run(ctx, overdraw, source)
		require.Error(t, err)
		assert.True(t, IsDBError(err))

		balances, err := Run(ctx, QueryFrom(qb.Select("balance").From("accounts").OrderBy("id"), SingleColumn[int64]()), source)
		require.NoError(t, err)
		assert.Equal(t, []int64{70, 80}, balances)
	})
}
