//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import "errors"

// Sentinel errors reported by Conn and Statement implementations.
// These can be used with errors.Is() for programmatic error checking.
var (
	// ErrConnClosed is returned when a closed connection is used.
	ErrConnClosed = errors.New("connection is closed")

	// ErrStmtClosed is returned when a closed statement is used.
	ErrStmtClosed = errors.New("statement is closed")

	// ErrNoGeneratedKey is returned when an update produced no generated key.
	ErrNoGeneratedKey = errors.New("no generated key")

	// ErrGeneratedKeysUnsupported is returned when the vendor cannot report generated keys.
	ErrGeneratedKeysUnsupported = errors.New("generated keys not supported by this database")

	// ErrKeysNotRequested is returned by GeneratedKeys on a statement prepared without key retrieval.
	ErrKeysNotRequested = errors.New("statement was not prepared for generated keys")
)
