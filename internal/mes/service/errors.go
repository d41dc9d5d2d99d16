package service

import "fmt"

// ValidationError rejects malformed input to a mutating call. Never
// retried, surfaced to the caller as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func validationErr(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvalidStateError rejects an operation against a record whose lifecycle
// state does not allow it. Status is always re-read server-side before a
// mutation so stale client state cannot slip an edit through.
type InvalidStateError struct {
	Current string
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

func invalidStateErr(current, format string, args ...interface{}) error {
	return &InvalidStateError{Current: current, Message: fmt.Sprintf(format, args...)}
}
