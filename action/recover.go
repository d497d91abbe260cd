package action

import (
	"context"
	"errors"

	"github.com/gaborage/go-dbaction/database/types"
)

// Recover returns a chain that yields fallback when a fails with a database-operation
// failure (*DBError). Any other error, such as a statement builder error or a failure
// returned by custom code, propagates unchanged.
func Recover[T any](a Action[T], fallback T) *Chain[T] {
	return newChain("recover {"+describe(a)+"}", func(ctx context.Context, conn types.Conn) (T, error) {
		if a == nil {
			var zero T
			return zero, ErrNilAction
		}
		result, err := a.Invoke(ctx, conn)
		if err == nil {
			return result, nil
		}
		var dbErr *DBError
		if errors.As(err, &dbErr) {
			return fallback, nil
		}
		return result, err
	})
}

// RecoverZero is Recover with the zero value of T as the fallback.
func RecoverZero[T any](a Action[T]) *Chain[T] {
	var zero T
	return Recover(a, zero)
}
