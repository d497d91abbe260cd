package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	dbMeterName = "go-dbaction/database"

	metricDBCalls      = "db.client.calls"
	metricDBDuration   = "db.client.operation.duration"
	metricRowsAffected = "db.rows.affected"

	metricPoolActive = "db.connection.pool.active"
	metricPoolIdle   = "db.connection.pool.idle"
	metricPoolTotal  = "db.connection.pool.total"

	attrDBTable     = "db.sql.table"
	attrDBOperation = "db.operation.name"
)

var (
	dbMeter   metric.Meter
	meterOnce sync.Once

	dbCallsCounter        metric.Int64Counter
	dbDurationHistogram   metric.Float64Histogram
	dbRowsAffectedCounter metric.Int64Counter
)

// logMetricError reports an instrument registration failure. Metrics are best effort.
func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", name, err)
	}
}

func initDBMeter() {
	dbMeter = otel.Meter(dbMeterName)

	var err error
	dbCallsCounter, err = dbMeter.Int64Counter(
		metricDBCalls,
		metric.WithDescription("Total number of database client calls"),
	)
	logMetricError(metricDBCalls, err)

	dbDurationHistogram, err = dbMeter.Float64Histogram(
		metricDBDuration,
		metric.WithDescription("Duration of database operations in milliseconds"),
		metric.WithUnit("ms"),
	)
	logMetricError(metricDBDuration, err)

	dbRowsAffectedCounter, err = dbMeter.Int64Counter(
		metricRowsAffected,
		metric.WithDescription("Number of rows affected by database operations"),
	)
	logMetricError(metricRowsAffected, err)
}

func getDBMeter() metric.Meter {
	meterOnce.Do(initDBMeter)
	return dbMeter
}

// recordDBMetrics records the call counter, the duration histogram and, for successful
// updates, the number of affected rows.
func recordDBMetrics(ctx context.Context, tc *Context, query string, duration time.Duration, rowsAffected int64, err error) {
	if getDBMeter() == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, normalizeDBVendor(tc.Vendor)),
		attribute.String(attrDBOperation, extractDBOperation(query)),
		attribute.String(attrDBTable, extractTableName(query)),
	}

	if dbCallsCounter != nil {
		counterAttrs := append(attrs[:len(attrs):len(attrs)], attribute.Bool("error", err != nil))
		dbCallsCounter.Add(ctx, 1, metric.WithAttributes(counterAttrs...))
	}
	if dbDurationHistogram != nil {
		dbDurationHistogram.Record(ctx, float64(duration.Nanoseconds())/1e6, metric.WithAttributes(attrs...))
	}
	if dbRowsAffectedCounter != nil && rowsAffected > 0 && err == nil {
		dbRowsAffectedCounter.Add(ctx, rowsAffected, metric.WithAttributes(attrs...))
	}
}

var (
	selectTableRegex = regexp.MustCompile("(?i)FROM\\s+(?:[`\"]?\\w+[`\"]?\\.)?[`\"]?(\\w+)[`\"]?")
	insertTableRegex = regexp.MustCompile("(?i)INSERT\\s+INTO\\s+(?:[`\"]?\\w+[`\"]?\\.)?[`\"]?(\\w+)[`\"]?")
	updateTableRegex = regexp.MustCompile("(?i)UPDATE\\s+(?:[`\"]?\\w+[`\"]?\\.)?[`\"]?(\\w+)[`\"]?")
	deleteTableRegex = regexp.MustCompile("(?i)DELETE\\s+FROM\\s+(?:[`\"]?\\w+[`\"]?\\.)?[`\"]?(\\w+)[`\"]?")
)

// extractTableName returns the lowercase name of the first table a DML statement
// touches, or "unknown".
func extractTableName(query string) string {
	query = strings.TrimSpace(query)
	query = strings.TrimPrefix(query, prefixPrepareKeys)
	query = strings.TrimPrefix(query, prefixPrepare)

	var pattern *regexp.Regexp
	upper := strings.ToUpper(query)
	switch {
	case strings.HasPrefix(upper, "SELECT"):
		pattern = selectTableRegex
	case strings.HasPrefix(upper, "INSERT"):
		pattern = insertTableRegex
	case strings.HasPrefix(upper, "UPDATE"):
		pattern = updateTableRegex
	case strings.HasPrefix(upper, "DELETE"):
		pattern = deleteTableRegex
	default:
		return "unknown"
	}
	if m := pattern.FindStringSubmatch(query); len(m) > 1 {
		return strings.ToLower(m[1])
	}
	return "unknown"
}

// RegisterPoolMetrics registers observable gauges reporting the pool's in-use, idle and
// maximum connection counts. The returned function unregisters the callback.
func RegisterPoolMetrics(stats func() sql.DBStats, vendor string) func() {
	noop := func() {}
	meter := getDBMeter()
	if meter == nil || stats == nil {
		return noop
	}

	attrs := metric.WithAttributes(attribute.String(attrDBSystem, normalizeDBVendor(vendor)))

	var instruments []metric.Observable
	gauge := func(name, description string) metric.Int64ObservableGauge {
		g, err := meter.Int64ObservableGauge(name, metric.WithDescription(description))
		logMetricError(name, err)
		if g != nil {
			instruments = append(instruments, g)
		}
		return g
	}
	active := gauge(metricPoolActive, "Number of active database connections")
	idle := gauge(metricPoolIdle, "Number of idle database connections")
	total := gauge(metricPoolTotal, "Maximum number of database connections configured")
	if len(instruments) == 0 {
		return noop
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		if active != nil {
			o.ObserveInt64(active, int64(s.InUse), attrs)
		}
		if idle != nil {
			o.ObserveInt64(idle, int64(s.Idle), attrs)
		}
		if total != nil {
			o.ObserveInt64(total, int64(s.MaxOpenConnections), attrs)
		}
		return nil
	}, instruments...)
	if err != nil {
		logMetricError("pool_metrics_callback", err)
		return noop
	}

	return func() {
		if err := registration.Unregister(); err != nil {
			logMetricError("pool_metrics_unregister", err)
		}
	}
}
