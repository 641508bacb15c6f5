package recallconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue indicates a field has an invalid value.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrMissingBackend indicates a pluggable backend (LLM/semantic) was
	// enabled without a required selector or endpoint.
	ErrMissingBackend = errors.New("missing required backend configuration")

	// ErrInvalidYAML indicates the configuration file could not be parsed.
	ErrInvalidYAML = errors.New("invalid YAML syntax")
)

// ValidationError wraps a configuration validation or parse failure with
// the offending field for context, mirroring pkg/config/errors.go's
// ValidationError in the teacher repo.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("field %q (value %q): %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError wrapping err for field.
func NewValidationError(field, value string, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err}
}
