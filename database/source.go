package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/gaborage/go-dbaction/database/internal/tracking"
	"github.com/gaborage/go-dbaction/database/types"
	"github.com/gaborage/go-dbaction/logger"
)

// ConnectionSource yields a live connection on demand.
type ConnectionSource interface {
	// Get returns a connection. Failures are reported as *AcquireError.
	Get(ctx context.Context) (types.Conn, error)
}

// SourceFunc adapts a function to ConnectionSource.
type SourceFunc func(ctx context.Context) (types.Conn, error)

// Get calls f.
func (f SourceFunc) Get(ctx context.Context) (types.Conn, error) {
	return f(ctx)
}

// ErrAcquire matches every *AcquireError with errors.Is.
var ErrAcquire = errors.New("connection acquisition failed")

// AcquireError reports that a connection could not be obtained.
type AcquireError struct {
	Source string
	Err    error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("acquire connection from %s: %v", e.Source, e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrAcquire.
func (e *AcquireError) Is(target error) bool {
	return target == ErrAcquire
}

// asAcquireError wraps err unless it already is an acquisition failure.
func asAcquireError(source string, err error) error {
	var acquireErr *AcquireError
	if errors.As(err, &acquireErr) {
		return err
	}
	return &AcquireError{Source: source, Err: err}
}

// SourceOption configures PoolSource and DriverSource.
type SourceOption func(*sourceOptions)

type sourceOptions struct {
	keyMode    types.KeyMode
	keyModeSet bool
	logger     logger.Logger
	tracking   *tracking.Settings
}

// WithKeyMode overrides the vendor's generated key mode.
func WithKeyMode(mode types.KeyMode) SourceOption {
	return func(o *sourceOptions) {
		o.keyMode = mode
		o.keyModeSet = true
	}
}

// WithLogger sets the logger used for acquisition and tracking output.
func WithLogger(log logger.Logger) SourceOption {
	return func(o *sourceOptions) {
		o.logger = log
	}
}

// WithTracking decorates every connection with statement tracking.
func WithTracking(settings TrackingSettings) SourceOption {
	return func(o *sourceOptions) {
		o.tracking = &settings
	}
}

func newSourceOptions(vendor string, opts []SourceOption) sourceOptions {
	o := sourceOptions{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.keyModeSet {
		o.keyMode = KeyModeFor(vendor)
	}
	return o
}

// wrap applies the configured decorators to a fresh connection.
func (o sourceOptions) wrap(conn types.Conn) types.Conn {
	if o.tracking == nil {
		return conn
	}
	return tracking.NewConn(conn, o.logger, *o.tracking)
}

// PoolSource checks a dedicated connection out of a *sql.DB pool on every Get.
// Closing the returned connection hands it back to the pool; callers must close every
// connection they get, or the pool runs dry once MaxOpenConns connections are out.
type PoolSource struct {
	db     *sql.DB
	vendor string
	opts   sourceOptions
}

var _ ConnectionSource = (*PoolSource)(nil)

// NewPoolSource creates a source over db for vendor.
func NewPoolSource(db *sql.DB, vendor string, opts ...SourceOption) *PoolSource {
	return &PoolSource{
		db:     db,
		vendor: vendor,
		opts:   newSourceOptions(vendor, opts),
	}
}

// Get checks out a connection from the pool.
func (s *PoolSource) Get(ctx context.Context) (types.Conn, error) {
	c, err := s.db.Conn(ctx)
	if err != nil {
		return nil, &AcquireError{Source: s.String(), Err: err}
	}
	s.opts.logger.Debug().Str("vendor", s.vendor).Msg("Acquired pooled connection")
	return s.opts.wrap(NewConn(c, s.vendor, s.opts.keyMode)), nil
}

// DB returns the underlying pool.
func (s *PoolSource) DB() *sql.DB {
	return s.db
}

func (s *PoolSource) String() string {
	return "pool(" + s.vendor + ")"
}

// DriverSource opens a new connection through a registered database/sql driver on every
// Get. Each connection owns a private pool that is closed together with it.
type DriverSource struct {
	driver string
	dsn    string
	vendor string
	opts   sourceOptions
}

var _ ConnectionSource = (*DriverSource)(nil)

// NewDriverSource creates a source connecting with driver to dsn.
func NewDriverSource(driver, dsn, vendor string, opts ...SourceOption) *DriverSource {
	return &DriverSource{
		driver: driver,
		dsn:    dsn,
		vendor: vendor,
		opts:   newSourceOptions(vendor, opts),
	}
}

// Get opens a new connection.
func (s *DriverSource) Get(ctx context.Context) (types.Conn, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, &AcquireError{Source: s.String(), Err: err}
	}
	db.SetMaxOpenConns(1)

	c, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, &AcquireError{Source: s.String(), Err: err}
	}
	s.opts.logger.Debug().Str("driver", s.driver).Msg("Opened driver connection")

	conn := NewConn(c, s.vendor, s.opts.keyMode)
	conn.release = db.Close
	return s.opts.wrap(conn), nil
}

func (s *DriverSource) String() string {
	return "driver(" + s.driver + ")"
}

// CachingSource acquires a connection once and returns it on every later Get.
//
// Concurrent first calls result in exactly one acquisition. A failed acquisition stores
// nothing, so the next Get tries again. The cached connection is never validated,
// refreshed or closed by the source.
type CachingSource struct {
	inner ConnectionSource

	mu   sync.Mutex
	conn types.Conn
}

var _ ConnectionSource = (*CachingSource)(nil)

// NewCachingSource wraps inner.
func NewCachingSource(inner ConnectionSource) *CachingSource {
	return &CachingSource{inner: inner}
}

// Get returns the cached connection, acquiring it from the inner source on first use.
func (s *CachingSource) Get(ctx context.Context) (types.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.inner.Get(ctx)
	if err != nil {
		return nil, asAcquireError(s.String(), err)
	}
	s.conn = conn
	return conn, nil
}

// Cached returns the stored connection, or nil before the first successful Get.
func (s *CachingSource) Cached() types.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *CachingSource) String() string {
	return "caching(" + describe(s.inner) + ")"
}

func describe(source ConnectionSource) string {
	if str, ok := source.(fmt.Stringer); ok {
		return str.String()
	}
	return fmt.Sprintf("%T", source)
}
