// Package action composes units of database work that run against a single connection.
//
// An Action yields a typed result from a types.Conn. Actions are built by the factories
// in this package, chained with Chain.ThenDiscard and ThenReplace, made transactional
// with Tx, and executed end to end with Run:
//
//	transfer := action.Tx(
//	    action.Update("UPDATE accounts SET balance = balance - ? WHERE id = ?", 10, 1).
//	        ThenDiscard(action.Update("UPDATE accounts SET balance = balance + ? WHERE id = ?", 10, 2)),
//	)
//	n, err := action.Run(ctx, transfer, source)
//
// Actions hold no connection state; one value can be invoked any number of times.
package action

import (
	"context"
	"fmt"

	"github.com/gaborage/go-dbaction/database/types"
)

// Action is a unit of work against a database connection.
type Action[T any] interface {
	Invoke(ctx context.Context, conn types.Conn) (T, error)
}

// Effect is an action whose result is not needed. Every action type in this package
// implements it, which lets chains sequence actions of different result types.
type Effect interface {
	Apply(ctx context.Context, conn types.Conn) error
}

// ActionFunc adapts a function to Action and Effect.
type ActionFunc[T any] func(ctx context.Context, conn types.Conn) (T, error)

// Invoke calls f.
func (f ActionFunc[T]) Invoke(ctx context.Context, conn types.Conn) (T, error) {
	return f(ctx, conn)
}

// Apply calls f and discards its result.
func (f ActionFunc[T]) Apply(ctx context.Context, conn types.Conn) error {
	_, err := f(ctx, conn)
	return err
}

func (f ActionFunc[T]) String() string {
	return "func"
}

// describe returns the description of an action for logs and errors.
func describe(a any) string {
	switch v := a.(type) {
	case nil:
		return "<nil>"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%T", a)
	}
}
