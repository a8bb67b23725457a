// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/invowk/bundlegraph/pkg/catalog"
)

const (
	// LogLevelDebug enables debug output.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn shows warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError shows errors only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level the CLI logger emits.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// EnvironmentConfig pins target environment components. Empty components
	// are detected from the running system.
	EnvironmentConfig struct {
		OS   string `json:"os" mapstructure:"os"`
		WS   string `json:"ws" mapstructure:"ws"`
		Arch string `json:"arch" mapstructure:"arch"`
		NL   string `json:"nl" mapstructure:"nl"`
	}

	// Config holds the application configuration.
	Config struct {
		// Workspace lists workspace project directories.
		Workspace []string `json:"workspace" mapstructure:"workspace"`
		// Repositories lists binary repository directories.
		Repositories []string `json:"repositories" mapstructure:"repositories"`
		// PreferWorkspace lets workspace modules win over binary modules with
		// the same id and version.
		PreferWorkspace bool `json:"prefer_workspace" mapstructure:"prefer_workspace"`
		// StateFile is the resolved-state CUE file.
		StateFile string `json:"state_file" mapstructure:"state_file"`
		// Environment pins the target environment.
		Environment EnvironmentConfig `json:"environment" mapstructure:"environment"`
		// LogLevel is the CLI log level.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
	}
)

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel so callers can use errors.Is for programmatic detection.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels,
// and a list of validation errors if it is not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field errors", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig so callers can use errors.Is for programmatic detection.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Selector returns the pinned components as a target environment.
func (e EnvironmentConfig) Selector() catalog.Environment {
	return catalog.Environment{
		OS:   strings.TrimSpace(e.OS),
		WS:   strings.TrimSpace(e.WS),
		Arch: strings.TrimSpace(e.Arch),
		NL:   strings.TrimSpace(e.NL),
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workspace:       []string{},
		Repositories:    []string{},
		PreferWorkspace: true,
		LogLevel:        LogLevelInfo,
	}
}

// Validate checks constraints the schema cannot express.
func (c *Config) Validate() error {
	var errs []error
	if ok, fieldErrs := c.LogLevel.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	errs = append(errs, uniquePaths("workspace", c.Workspace)...)
	errs = append(errs, uniquePaths("repositories", c.Repositories)...)
	if c.StateFile != "" && strings.TrimSpace(c.StateFile) == "" {
		errs = append(errs, errors.New("state_file: must not be whitespace-only"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func uniquePaths(field string, paths []string) []error {
	var errs []error
	seen := make(map[string]int, len(paths))
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: empty path", field, i))
			continue
		}
		clean := filepath.Clean(p)
		if first, ok := seen[clean]; ok {
			errs = append(errs, fmt.Errorf("%s[%d]: duplicate path %q (same as %s[%d])", field, i, p, field, first))
			continue
		}
		seen[clean] = i
	}
	return errs
}
