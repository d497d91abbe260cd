package action

import (
	"errors"
	"fmt"
)

// Op names the database operation that failed.
type Op string

// Database operations reported by DBError.
const (
	OpPrepare       Op = "prepare"
	OpExec          Op = "exec"
	OpQuery         Op = "query"
	OpScan          Op = "scan"
	OpKeys          Op = "keys"
	OpCommit        Op = "commit"
	OpRollback      Op = "rollback"
	OpSetAutoCommit Op = "set auto-commit"
)

var (
	// ErrNoRows is reported (inside a *DBError) by QueryOne when the query produced no row.
	ErrNoRows = errors.New("no rows in result set")

	// ErrUnsupportedKeyType is returned when a generated key cannot be converted to int64.
	ErrUnsupportedKeyType = errors.New("unsupported generated key type")

	// ErrNilAction is returned when a nil action is invoked or composed.
	ErrNilAction = errors.New("nil action")

	// ErrRun matches every *RunError with errors.Is.
	ErrRun = errors.New("action failed")
)

// DBError is a database-operation failure: a statement could not be prepared or
// executed, a cursor could not be read, or the connection refused a transaction
// control call. Recover absorbs exactly this kind of failure.
type DBError struct {
	Op    Op
	Query string
	Err   error
}

func (e *DBError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Query, e.Err)
}

func (e *DBError) Unwrap() error {
	return e.Err
}

func dbError(op Op, query string, err error) error {
	return &DBError{Op: op, Query: query, Err: err}
}

// IsDBError reports whether err carries a database-operation failure.
func IsDBError(err error) bool {
	var dbErr *DBError
	return errors.As(err, &dbErr)
}

// TxError is returned when rolling back a failed transaction failed as well.
// Err is the failure that triggered the rollback; both are reachable with errors.Is/As.
type TxError struct {
	Err         error
	RollbackErr error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("%v (rollback failed: %v)", e.Err, e.RollbackErr)
}

func (e *TxError) Unwrap() []error {
	return []error{e.Err, e.RollbackErr}
}

// RunError is the single failure kind returned by Run. It wraps acquisition failures
// and action failures alike.
type RunError struct {
	Action string
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s: %v", e.Action, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRun.
func (e *RunError) Is(target error) bool {
	return target == ErrRun
}
