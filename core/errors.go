package core

import "github.com/pkg/errors"

var (
	// ErrUnauthenticated is returned when no valid session could be resolved.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when a valid session lacks permission for the requested action.
	ErrForbidden = errors.New("permission denied")
	// ErrModeMismatch is returned when the active auth mode does not support the requested operation.
	ErrModeMismatch = errors.New("operation not available in the active auth mode")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
