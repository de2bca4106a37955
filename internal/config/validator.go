package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/ttytest/internal/escalation"
	"github.com/Iron-Ham/ttytest/internal/launch"
	"github.com/Iron-Ham/ttytest/internal/textenc"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "wait.timeout_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Upper bounds for numeric settings
const (
	maxTimeoutMs = 10 * 60 * 1000 // 10 minutes
	maxTermSize  = 1000
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLaunch()...)
	errors = append(errors, c.validateStderr()...)
	errors = append(errors, c.validateWait()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateLaunch validates the LaunchConfig
func (c *Config) validateLaunch() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(launch.ValidModes(), c.Launch.Mode) {
		errors = append(errors, ValidationError{
			Field:   "launch.mode",
			Value:   c.Launch.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(launch.ValidModes(), ", ")),
		})
	}

	if _, err := textenc.Lookup(c.Launch.Encoding); err != nil {
		errors = append(errors, ValidationError{
			Field:   "launch.encoding",
			Value:   c.Launch.Encoding,
			Message: "unknown text encoding",
		})
	}

	// Terminal size only matters in pty mode, but nonsense values are
	// rejected regardless
	if c.Launch.Rows < 0 || c.Launch.Rows > maxTermSize {
		errors = append(errors, ValidationError{
			Field:   "launch.rows",
			Value:   c.Launch.Rows,
			Message: fmt.Sprintf("must be between 0 and %d", maxTermSize),
		})
	}
	if c.Launch.Cols < 0 || c.Launch.Cols > maxTermSize {
		errors = append(errors, ValidationError{
			Field:   "launch.cols",
			Value:   c.Launch.Cols,
			Message: fmt.Sprintf("must be between 0 and %d", maxTermSize),
		})
	}

	return errors
}

// validateStderr validates the StderrConfig
func (c *Config) validateStderr() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(escalation.ValidModes(), c.Stderr.Mode) {
		errors = append(errors, ValidationError{
			Field:   "stderr.mode",
			Value:   c.Stderr.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(escalation.ValidModes(), ", ")),
		})
	}

	return errors
}

// validateWait validates the WaitConfig
func (c *Config) validateWait() []ValidationError {
	var errors []ValidationError

	if c.Wait.TimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "wait.timeout_ms",
			Value:   c.Wait.TimeoutMs,
			Message: "must be positive",
		})
	} else if c.Wait.TimeoutMs > maxTimeoutMs {
		errors = append(errors, ValidationError{
			Field:   "wait.timeout_ms",
			Value:   c.Wait.TimeoutMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxTimeoutMs),
		})
	}

	if c.Wait.DelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "wait.delay_ms",
			Value:   c.Wait.DelayMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
