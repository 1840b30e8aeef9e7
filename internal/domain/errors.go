package domain

import "fmt"

// ValidationError reports a missing or invalid required field on a
// submission. The message text is relayed verbatim to the platform.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewMissingFieldError reports an absent required field.
func NewMissingFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "Missing " + field}
}

// NewInvalidTypeError reports an unrecognized measurement type.
func NewInvalidTypeError(value string) *ValidationError {
	return &ValidationError{
		Field:   "measurement_type",
		Message: fmt.Sprintf("Invalid measurement type %q", value),
	}
}

// NotFoundError reports an unknown record identifier on confirm, retrieve,
// or the supersede half of update.
type NotFoundError struct {
	UUID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No entry with UUID %s found.", e.UUID)
}
