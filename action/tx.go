package action

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gaborage/go-dbaction/database/types"
	"github.com/gaborage/go-dbaction/logger"
)

// TxOption configures Tx.
type TxOption func(*txOptions)

type txOptions struct {
	logger logger.Logger
}

// WithTxLogger sets the logger receiving transaction debug and failure events.
func WithTxLogger(log logger.Logger) TxOption {
	return func(o *txOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// Tx wraps a so that it runs in a transaction on the invoking connection.
//
// Auto-commit is switched off before a runs. On success the transaction is committed;
// on failure, including a failed commit, it is rolled back and the original failure is
// returned. If the rollback fails too, a *TxError carries both failures. The auto-commit
// mode found on entry is restored exactly once on every exit path; a failed restore is
// joined onto the returned error.
//
// Tx does not group separate actions: compose them into one Chain first.
func Tx[T any](a Action[T], opts ...TxOption) *Chain[T] {
	o := txOptions{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return newChain("tx {"+describe(a)+"}", func(ctx context.Context, conn types.Conn) (T, error) {
		if a == nil {
			var zero T
			return zero, ErrNilAction
		}
		return invokeTx(ctx, conn, a, o.logger)
	})
}

func invokeTx[T any](ctx context.Context, conn types.Conn, a Action[T], log logger.Logger) (result T, err error) {
	log = log.WithFields(map[string]any{"tx_id": uuid.NewString()})
	original := conn.AutoCommit()

	defer func() {
		restoreErr := conn.SetAutoCommit(ctx, original)
		if restoreErr == nil {
			return
		}
		restoreErr = dbError(OpSetAutoCommit, "", restoreErr)
		log.Error().Err(restoreErr).Bool("auto_commit", original).Msg("Failed to restore auto-commit mode")
		if err == nil {
			var zero T
			result, err = zero, restoreErr
			return
		}
		err = errors.Join(err, restoreErr)
	}()

	defer func() {
		if p := recover(); p != nil {
			if rbErr := conn.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Rollback after panic failed")
			}
			panic(p)
		}
	}()

	if err = conn.SetAutoCommit(ctx, false); err != nil {
		var zero T
		return zero, dbError(OpSetAutoCommit, "", err)
	}
	log.Debug().Bool("auto_commit", original).Msg("Transaction started")

	result, err = a.Invoke(ctx, conn)
	if err == nil {
		commitErr := conn.Commit(ctx)
		if commitErr == nil {
			log.Debug().Msg("Transaction committed")
			return result, nil
		}
		err = dbError(OpCommit, "", commitErr)
	}

	var zero T
	if rbErr := conn.Rollback(ctx); rbErr != nil {
		rbErr = dbError(OpRollback, "", rbErr)
		log.Error().Err(rbErr).Str("cause", err.Error()).Msg("Rollback failed")
		return zero, &TxError{Err: err, RollbackErr: rbErr}
	}
	log.Debug().Err(err).Msg("Transaction rolled back")
	return zero, err
}
