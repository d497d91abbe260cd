// Package logger is the logging seam of go-dbaction. Connection sources, the
// statement tracking decorator, transactions and the action runner all write
// through Logger, so callers can plug in their own backend or silence the
// library with Nop. ZeroLogger is the bundled zerolog backend.
package logger

import "time"

// Logger hands out one LogEvent per record. WithFields and WithContext derive a
// child logger, e.g. one carrying a transaction's tx_id.
type Logger interface {
	Info() LogEvent
	Error() LogEvent
	Debug() LogEvent
	Warn() LogEvent
	Fatal() LogEvent
	WithContext(ctx any) Logger
	WithFields(fields map[string]any) Logger
}

// LogEvent accumulates fields for a single record. Nothing is written until Msg
// or Msgf is called, and the event must not be reused afterwards.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Bool(key string, value bool) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
}
