package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterString(t *testing.T) {
	f := NewSensitiveDataFilter(nil)

	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{name: "plain_field", key: "query", value: "SELECT 1", expected: "SELECT 1"},
		{name: "password_field", key: "password", value: "hunter2", expected: DefaultMaskValue},
		{name: "case_insensitive_key", key: "DB_Password", value: "hunter2", expected: DefaultMaskValue},
		{name: "empty_value", key: "password", value: "", expected: ""},
		{
			name:     "url_dsn_keeps_structure",
			key:      "dsn",
			value:    "postgres://app:hunter2@db:5432/orders?sslmode=disable",
			expected: "postgres://app:***@db:5432/orders?sslmode=disable",
		},
		{
			name:     "url_without_password",
			key:      "dsn",
			value:    "postgres://app@db:5432/orders",
			expected: "postgres://app@db:5432/orders",
		},
		{
			name:     "keyword_dsn",
			key:      "connectionstring",
			value:    "host=db user=app password=hunter2 dbname=orders",
			expected: "host=db user=app password=*** dbname=orders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.FilterString(tt.key, tt.value))
		})
	}
}

func TestFilterValue(t *testing.T) {
	f := NewSensitiveDataFilter(&FilterConfig{SensitiveFields: []string{"secret"}})

	assert.Equal(t, 42, f.FilterValue("count", 42))
	assert.Equal(t, DefaultMaskValue, f.FilterValue("secret", 42))
	assert.Nil(t, f.FilterValue("secret", nil))

	nested := f.FilterValue("args", map[string]any{"secret": "x", "id": 1})
	assert.Equal(t, map[string]any{"secret": DefaultMaskValue, "id": 1}, nested)
}

func TestFilterCustomMask(t *testing.T) {
	f := NewSensitiveDataFilter(&FilterConfig{SensitiveFields: []string{"token"}, MaskValue: "[MASKED]"})
	assert.Equal(t, "[MASKED]", f.FilterString("token", "abc"))
}
