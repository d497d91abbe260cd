package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Operation name for statements whose verb is not recognized
	defaultOperation = "query"

	dbTracerName      = "go-dbaction/database"
	maxDBQueryAttrLen = 2000
	attrDBSystem      = "db.system.name"
)

// Operation labels for connection-level calls that carry no statement text.
const (
	OpSetAutoCommitOn  = "SET AUTOCOMMIT=on"
	OpSetAutoCommitOff = "SET AUTOCOMMIT=off"
	OpCommit           = "COMMIT"
	OpRollback         = "ROLLBACK"
	prefixPrepare      = "PREPARE: "
	prefixPrepareKeys  = "PREPARE_KEYS: "
)

// Track records a completed database operation: a span, metrics, and a log event.
//
// Failures are logged at error level. Successful operations slower than the configured
// threshold are logged as warnings, all others at debug level. Track is a no-op when tc
// or its logger is nil.
func Track(ctx context.Context, tc *Context, query string, args []any, start time.Time, rowsAffected int64, err error) {
	if tc == nil || tc.Logger == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	elapsed := time.Since(start)

	createDBSpan(ctx, tc, query, start, err)
	recordDBMetrics(ctx, tc, query, elapsed, rowsAffected, err)

	truncatedQuery := TruncateString(query, tc.Settings.MaxQueryLength())

	logEvent := tc.Logger.WithContext(ctx).WithFields(map[string]any{
		"vendor":      tc.Vendor,
		"duration_ms": elapsed.Milliseconds(),
		"query":       truncatedQuery,
	})

	if tc.Settings.LogQueryParameters() && len(args) > 0 {
		logEvent = logEvent.WithFields(map[string]any{
			"args": SanitizeArgs(args, tc.Settings.MaxQueryLength()),
		})
	}

	switch {
	case err != nil:
		logEvent.Error().Err(err).Msg("Database operation error")
	case tc.Settings.SlowQueryEnabled() && elapsed > tc.Settings.SlowQueryThreshold():
		logEvent.Warn().Msgf("Slow database operation detected (%s)", elapsed)
	default:
		logEvent.Debug().Msg("Database operation executed")
	}
}

// TruncateString truncates value to at most maxLen runes, ending with "..." when there is room.
// A non-positive maxLen leaves value unchanged.
func TruncateString(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeArgs returns a copy of args suitable for logging. Strings are truncated,
// byte slices are replaced by their length, and everything else is formatted with %v.
func SanitizeArgs(args []any, maxLen int) []any {
	if len(args) == 0 {
		return nil
	}
	sanitized := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case nil:
			sanitized[i] = nil
		case string:
			sanitized[i] = TruncateString(v, maxLen)
		case []byte:
			sanitized[i] = fmt.Sprintf("<bytes len=%d>", len(v))
		default:
			sanitized[i] = TruncateString(fmt.Sprintf("%v", v), maxLen)
		}
	}
	return sanitized
}

// createDBSpan emits a client span covering [start, now) for the operation.
func createDBSpan(ctx context.Context, tc *Context, query string, start time.Time, err error) {
	operation := extractDBOperation(query)

	_, span := otel.Tracer(dbTracerName).Start(ctx, "db."+operation,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	attrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, normalizeDBVendor(tc.Vendor)),
		semconv.DBQueryText(TruncateString(query, maxDBQueryAttrLen)),
	}
	if operation != defaultOperation {
		attrs = append(attrs, semconv.DBOperationName(operation))
	}
	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// extractDBOperation returns the lowercase operation name of a statement or a
// connection-level operation label.
func extractDBOperation(query string) string {
	query = strings.TrimSpace(query)
	switch {
	case query == "":
		return defaultOperation
	case strings.HasPrefix(query, strings.TrimSpace(prefixPrepare)),
		strings.HasPrefix(query, strings.TrimSpace(prefixPrepareKeys)):
		return "prepare"
	case strings.HasPrefix(query, "SET AUTOCOMMIT"):
		return "set_autocommit"
	case query == OpCommit:
		return "commit"
	case query == OpRollback:
		return "rollback"
	}

	operation := strings.ToLower(strings.Fields(query)[0])
	switch operation {
	case "select", "insert", "update", "delete", "merge", "create", "drop", "alter", "truncate", "with":
		return operation
	default:
		return defaultOperation
	}
}

// normalizeDBVendor maps vendor aliases to OpenTelemetry db.system.name values.
func normalizeDBVendor(vendor string) string {
	vendor = strings.ToLower(vendor)
	switch vendor {
	case "postgres", "postgresql", "pgx":
		return "postgresql"
	case "oracle":
		return "oracle.db"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return vendor
	}
}
