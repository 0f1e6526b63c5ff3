package domain

// ValidationError reports input that is malformed or logically invalid
// (missing required fields, unknown timezone, end before start). The message
// is safe to surface to the caller.
type ValidationError struct {
	msg string
}

// NewValidationError returns a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string { return e.msg }
