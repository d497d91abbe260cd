package action

import (
	"context"
	"fmt"
	"time"

	"github.com/gaborage/go-dbaction/database"
	"github.com/gaborage/go-dbaction/logger"
)

// Run acquires a connection from source and invokes a on it.
//
// Every failure, whether acquiring the connection, executing a statement or building
// one, is returned as a *RunError; the cause stays reachable with errors.Is and
// errors.As. Run does not close the connection: its lifetime belongs to the source.
func Run[T any](ctx context.Context, a Action[T], source database.ConnectionSource) (T, error) {
	return RunWith(ctx, a, source, logger.Nop())
}

// RunWith is Run with a logger receiving a debug event per run and an error event per failure.
func RunWith[T any](ctx context.Context, a Action[T], source database.ConnectionSource, log logger.Logger) (T, error) {
	var zero T
	desc := describe(a)
	if log == nil {
		log = logger.Nop()
	}
	fail := func(err error) (T, error) {
		runErr := &RunError{Action: desc, Err: err}
		log.Error().Err(err).Str("action", desc).Msg("Action failed")
		return zero, runErr
	}

	if a == nil {
		return fail(ErrNilAction)
	}
	if source == nil {
		return fail(fmt.Errorf("%w: nil connection source", database.ErrAcquire))
	}

	conn, err := source.Get(ctx)
	if err != nil {
		return fail(err)
	}

	start := time.Now()
	result, err := a.Invoke(ctx, conn)
	if err != nil {
		return fail(err)
	}
	log.Debug().Str("action", desc).Dur("duration", time.Since(start)).Msg("Action completed")
	return result, nil
}

// MustRun is Run for setup code and examples: it panics instead of returning an error.
func MustRun[T any](ctx context.Context, a Action[T], source database.ConnectionSource) T {
	result, err := Run(ctx, a, source)
	if err != nil {
		panic(err)
	}
	return result
}
