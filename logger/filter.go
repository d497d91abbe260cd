// Package logger provides filtering capabilities for sensitive data in log output.
package logger

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultMaskValue replaces sensitive values in log output.
const DefaultMaskValue = "***"

// FilterConfig defines the configuration for sensitive data filtering
type FilterConfig struct {
	// SensitiveFields contains field names that should be masked in logs
	SensitiveFields []string
	// MaskValue is the value used to replace sensitive data (default: "***")
	MaskValue string
}

// DefaultFilterConfig returns a default configuration with common sensitive field names
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "token",
			"credential", "credentials",
			"dsn", "connectionstring", "database_url", "db_url",
		},
		MaskValue: DefaultMaskValue,
	}
}

// keyword/value DSNs such as "host=db password=secret" keep their structure
var dsnPasswordPattern = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

// SensitiveDataFilter masks values of sensitive fields before they reach the log writer.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a new filter with the given configuration
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString filters sensitive data from string values
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitiveField(key) {
		return f.maskString(value)
	}
	return value
}

// FilterValue filters sensitive data from any values.
// Nested string-keyed maps are filtered recursively.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	if m, ok := value.(map[string]any); ok {
		return f.FilterFields(m)
	}
	if !f.isSensitiveField(key) {
		return value
	}
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return f.maskString(v)
	case fmt.Stringer:
		return f.maskString(v.String())
	default:
		return f.config.MaskValue
	}
}

// FilterFields returns a copy of fields with sensitive values masked.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		filtered[key] = f.FilterValue(key, value)
	}
	return filtered
}

// isSensitiveField checks if a field name is considered sensitive
func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lowerFieldName := strings.ToLower(fieldName)
	for _, sensitiveField := range f.config.SensitiveFields {
		if strings.Contains(lowerFieldName, strings.ToLower(sensitiveField)) {
			return true
		}
	}
	return false
}

// maskString masks sensitive string values.
// URLs and keyword/value DSNs keep everything but the password.
func (f *SensitiveDataFilter) maskString(value string) string {
	if value == "" {
		return value
	}

	if strings.Contains(value, "://") {
		return f.maskURL(value)
	}

	if dsnPasswordPattern.MatchString(value) {
		return dsnPasswordPattern.ReplaceAllString(value, "${1}"+f.config.MaskValue)
	}

	return f.config.MaskValue
}

// maskURL masks the password of a URL while preserving its structure
func (f *SensitiveDataFilter) maskURL(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return f.config.MaskValue
	}

	if parsed.User == nil {
		return urlStr
	}
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return urlStr
	}

	parsed.User = url.UserPassword(parsed.User.Username(), f.config.MaskValue)
	// url.String escapes the mask; undo it so logs stay readable
	return strings.Replace(parsed.String(), url.QueryEscape(f.config.MaskValue), f.config.MaskValue, 1)
}
