package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultSlowQueryThreshold = 200 * time.Millisecond
	defaultMaxQueryLength     = 1000
)

// Database type constants
const (
	PostgreSQL = "postgresql"
	Oracle     = "oracle"
	SQLite     = "sqlite"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report koanf paths instead of Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg and returns the first problem found as a *ConfigError.
func Validate(cfg *Config) error {
	if err := validateStruct(cfg); err != nil {
		return err
	}

	if err := validateDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	return nil
}

// validateStruct runs the validate tags and converts the first failure into a ConfigError.
func validateStruct(cfg *Config) error {
	err := structValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	fe := validationErrors[0]
	field := koanfPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value()), nil)
	}
}

// koanfPath turns the validator namespace "Config.database.pool.max.connections" into a koanf path.
func koanfPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// validateDatabase applies the vendor rules the struct tags cannot express.
func validateDatabase(cfg *DatabaseConfig) error {
	switch cfg.Type {
	case SQLite:
		if cfg.SQLite.Path == "" && cfg.ConnectionString == "" {
			return NewMissingFieldError("database.sqlite.path")
		}
		return nil
	case PostgreSQL, Oracle:
		if cfg.ConnectionString != "" {
			return nil
		}
		return validateDatabaseCoreFields(cfg)
	default:
		return NewInvalidFieldError("database.type", fmt.Sprintf("invalid value %q", cfg.Type), []string{PostgreSQL, Oracle, SQLite})
	}
}

func validateDatabaseCoreFields(cfg *DatabaseConfig) error {
	if cfg.Host == "" {
		return NewMissingFieldError("database.host")
	}

	if cfg.Port <= 0 {
		return NewInvalidFieldError("database.port", fmt.Sprintf("invalid port: %d (must be 1-65535)", cfg.Port), nil)
	}

	// Oracle may address the database through a service name or SID instead
	if cfg.Database == "" && (cfg.Type != Oracle || (cfg.Oracle.Service.Name == "" && cfg.Oracle.Service.SID == "")) {
		return NewMissingFieldError("database.database")
	}

	if cfg.Username == "" {
		return NewMissingFieldError("database.username")
	}

	return nil
}
