package compiler

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a compiler option or configuration file
// holds an invalid value.
var ErrInvalidConfig = errors.New("veloxsql: invalid compiler configuration")

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("veloxsql: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("veloxsql: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// FilterError wraps an error returned by an insert or update filter.
type FilterError struct {
	Cmd *Command
	Err error
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	return fmt.Sprintf("veloxsql: %s filter on %s: %v", e.Cmd.Op, e.Cmd.Model.Name, e.Err)
}

// Unwrap returns the filter error.
func (e *FilterError) Unwrap() error { return e.Err }
