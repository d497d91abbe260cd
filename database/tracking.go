package database

import (
	"github.com/gaborage/go-dbaction/database/internal/tracking"
)

// Re-export the internal tracking implementation as the public API
type (
	TrackedConn      = tracking.Conn
	TrackedStatement = tracking.Statement
	TrackingSettings = tracking.Settings
)

// Re-export internal functions as public API
var (
	NewTrackedConn      = tracking.NewConn
	NewTrackingSettings = tracking.NewSettings
	RegisterPoolMetrics = tracking.RegisterPoolMetrics
)

// Re-export internal constants
const (
	DefaultSlowQueryThreshold = tracking.DefaultSlowQueryThreshold
	DefaultMaxQueryLength     = tracking.DefaultMaxQueryLength
)
