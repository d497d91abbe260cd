package action

import (
	"context"

	"github.com/gaborage/go-dbaction/database/types"
)

// Chain is a composable action. Chains are immutable: composing returns a new Chain
// and leaves the receiver untouched, so a Chain can be shared and reused freely.
type Chain[T any] struct {
	desc   string
	invoke func(ctx context.Context, conn types.Conn) (T, error)
}

var (
	_ Action[int] = (*Chain[int])(nil)
	_ Effect      = (*Chain[int])(nil)
)

func newChain[T any](desc string, invoke func(ctx context.Context, conn types.Conn) (T, error)) *Chain[T] {
	return &Chain[T]{desc: desc, invoke: invoke}
}

// Chainable lifts a into a Chain with the same behavior and description.
func Chainable[T any](a Action[T]) *Chain[T] {
	if c, ok := a.(*Chain[T]); ok && c != nil {
		return c
	}
	if a == nil {
		return newChain("<nil>", func(context.Context, types.Conn) (T, error) {
			var zero T
			return zero, ErrNilAction
		})
	}
	return newChain(describe(a), a.Invoke)
}

// Invoke runs the chain against conn.
func (c *Chain[T]) Invoke(ctx context.Context, conn types.Conn) (T, error) {
	if c == nil || c.invoke == nil {
		var zero T
		return zero, ErrNilAction
	}
	return c.invoke(ctx, conn)
}

// Apply runs the chain and discards its result.
func (c *Chain[T]) Apply(ctx context.Context, conn types.Conn) error {
	_, err := c.Invoke(ctx, conn)
	return err
}

// String describes the chain.
func (c *Chain[T]) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.desc
}

// ThenDiscard returns a chain that runs the receiver, then next, and yields the
// receiver's result. next does not run when the receiver fails; a failure of next
// is returned and the receiver's result is dropped.
func (c *Chain[T]) ThenDiscard(next Effect) *Chain[T] {
	return newChain(describe(c)+" then "+describe(next), func(ctx context.Context, conn types.Conn) (T, error) {
		if next == nil {
			var zero T
			return zero, ErrNilAction
		}
		result, err := c.Invoke(ctx, conn)
		if err != nil {
			return result, err
		}
		if err := next.Apply(ctx, conn); err != nil {
			var zero T
			return zero, err
		}
		return result, nil
	})
}

// ThenReplace returns a chain that runs first for its side effects, then next, and
// yields next's result. next does not run when first fails.
//
// It is a function rather than a method of Chain because Go methods cannot introduce
// the new result type S.
func ThenReplace[S any](first Effect, next Action[S]) *Chain[S] {
	return newChain(describe(first)+" then return "+describe(next), func(ctx context.Context, conn types.Conn) (S, error) {
		var zero S
		if first == nil || next == nil {
			return zero, ErrNilAction
		}
		if err := first.Apply(ctx, conn); err != nil {
			return zero, err
		}
		return next.Invoke(ctx, conn)
	})
}
