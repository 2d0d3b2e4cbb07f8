package nn

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks structural configuration mistakes: wrong tuple arity,
// channel mismatches between chained stages, invalid sizes.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigError provides detail about a configuration failure.
type ConfigError struct {
	Layer  string // Layer or component being configured
	Field  string // Offending field
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %v: %s: %s", e.Layer, ErrConfiguration, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %v: %s", e.Layer, ErrConfiguration, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

func configErrorf(layer, field, format string, args ...any) error {
	return &ConfigError{Layer: layer, Field: field, Reason: fmt.Sprintf(format, args...)}
}
