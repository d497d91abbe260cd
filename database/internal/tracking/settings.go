// Package tracking decorates connections and statements with statement logging,
// slow statement detection, OpenTelemetry spans and metrics.
package tracking

import (
	"time"

	"github.com/gaborage/go-dbaction/config"
	"github.com/gaborage/go-dbaction/logger"
)

const (
	// DefaultSlowQueryThreshold defines the default threshold for slow statement detection
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	// DefaultMaxQueryLength defines the default maximum statement length for logging
	DefaultMaxQueryLength = 1000
)

// Settings holds configuration for statement tracking and logging.
type Settings struct {
	slowQueryThreshold time.Duration
	slowQueryEnabled   bool
	maxQueryLength     int
	logQueryParameters bool
}

// Context groups tracking-related parameters shared by the decorators of one connection.
type Context struct {
	Logger   logger.Logger
	Vendor   string
	Settings Settings
}

// NewSettings creates Settings from the database configuration.
// A nil cfg or a non-positive numeric field falls back to the defaults.
func NewSettings(cfg *config.DatabaseConfig) Settings {
	settings := Settings{
		slowQueryThreshold: DefaultSlowQueryThreshold,
		slowQueryEnabled:   true,
		maxQueryLength:     DefaultMaxQueryLength,
	}

	if cfg == nil {
		return settings
	}

	if cfg.Query.Slow.Threshold > 0 {
		settings.slowQueryThreshold = cfg.Query.Slow.Threshold
	}
	if cfg.Query.Log.MaxLength > 0 {
		settings.maxQueryLength = cfg.Query.Log.MaxLength
	}
	settings.slowQueryEnabled = cfg.Query.Slow.Enabled
	settings.logQueryParameters = cfg.Query.Log.Parameters

	return settings
}

// SlowQueryThreshold returns the threshold for slow statement detection
func (s Settings) SlowQueryThreshold() time.Duration {
	return s.slowQueryThreshold
}

// SlowQueryEnabled reports whether slow statements are logged as warnings
func (s Settings) SlowQueryEnabled() bool {
	return s.slowQueryEnabled
}

// MaxQueryLength returns the maximum statement length for logging
func (s Settings) MaxQueryLength() int {
	return s.maxQueryLength
}

// LogQueryParameters returns whether statement parameters should be logged
func (s Settings) LogQueryParameters() bool {
	return s.logQueryParameters
}
