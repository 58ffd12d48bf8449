// Package transcode converts between Docker Compose manifests and
// individual docker run / docker volume create commands.
// This is part of the Functional Core - all functions are pure with no I/O.
package transcode

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("input is empty")

	// Manifest errors
	ErrInvalidYAML = errors.New("invalid YAML syntax")
	ErrNoServices  = errors.New("manifest must define at least one service")

	// Command errors
	ErrNotRunCommand = errors.New("not a docker run command")
	ErrMissingImage  = errors.New("run command has no image")
	ErrUnknownFlag   = errors.New("unsupported docker run flag")
	ErrInvalidPort   = errors.New("invalid port specification")
	ErrInvalidMount  = errors.New("invalid volume specification")
)

// TranscodeError wraps errors with context about where translation failed.
type TranscodeError struct {
	Field   string // e.g., "services.web" or the offending flag
	Message string
	Err     error
}

func (e *TranscodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// NewTranscodeError creates a new TranscodeError.
func NewTranscodeError(field, message string, err error) *TranscodeError {
	return &TranscodeError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
