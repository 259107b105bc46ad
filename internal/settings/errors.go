package settings

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for settings and session operations

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeUnknownField indicates a field id the store does not hold (schema/store mismatch)
	ErrTypeUnknownField ErrorType = iota
	// ErrTypeInvalidValue indicates a value of the wrong kind for a field
	ErrTypeInvalidValue
	// ErrTypeAlreadySubmitted indicates a second submission of the same session
	ErrTypeAlreadySubmitted
	// ErrTypeInvalidState indicates an operation not allowed in the session's current state
	ErrTypeInvalidState
	// ErrTypeAbandoned indicates the session was closed without submitting
	ErrTypeAbandoned
	// ErrTypeSchema indicates a malformed settings schema
	ErrTypeSchema
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeUnknownField:
		return "Unknown Field"
	case ErrTypeInvalidValue:
		return "Invalid Value"
	case ErrTypeAlreadySubmitted:
		return "Already Submitted"
	case ErrTypeInvalidState:
		return "Invalid State"
	case ErrTypeAbandoned:
		return "Abandoned"
	case ErrTypeSchema:
		return "Schema Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents a failure reading or writing settings
type Error struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	FieldID string    // Field the error refers to (if any)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.FieldID != "" {
		msg = fmt.Sprintf("%s: %s", e.FieldID, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewUnknownFieldError creates an error for a field id missing from the store
func NewUnknownFieldError(id string) *Error {
	return &Error{
		Type:    ErrTypeUnknownField,
		Message: "no such field",
		FieldID: id,
	}
}

// NewInvalidValueError creates an error for a value that does not match the field kind
func NewInvalidValueError(id string, message string, err error) *Error {
	return &Error{
		Type:    ErrTypeInvalidValue,
		Message: message,
		FieldID: id,
		Err:     err,
	}
}

// NewAlreadySubmittedError creates an error for a repeated submission
func NewAlreadySubmittedError() *Error {
	return &Error{
		Type:    ErrTypeAlreadySubmitted,
		Message: "session has already been submitted",
	}
}

// NewInvalidStateError creates an error for an operation attempted in the wrong state
func NewInvalidStateError(message string) *Error {
	return &Error{
		Type:    ErrTypeInvalidState,
		Message: message,
	}
}

// NewAbandonedError creates an error for an operation on an abandoned session
func NewAbandonedError() *Error {
	return &Error{
		Type:    ErrTypeAbandoned,
		Message: "session was abandoned",
	}
}

// NewSchemaError creates a schema validation error
func NewSchemaError(id string, message string) *Error {
	return &Error{
		Type:    ErrTypeSchema,
		Message: message,
		FieldID: id,
	}
}

func errorType(err error) (ErrorType, bool) {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Type, true
	}
	return 0, false
}

// IsUnknownField checks if an error is an unknown field error
func IsUnknownField(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeUnknownField
}

// IsInvalidValue checks if an error is an invalid value error
func IsInvalidValue(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeInvalidValue
}

// IsAlreadySubmitted checks if an error is an already-submitted error
func IsAlreadySubmitted(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeAlreadySubmitted
}

// IsInvalidState checks if an error is an invalid state error
func IsInvalidState(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeInvalidState
}

// IsAbandoned checks if an error is an abandoned-session error
func IsAbandoned(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeAbandoned
}

// IsSchemaError checks if an error is a schema error
func IsSchemaError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeSchema
}

// IsRecoverable reports whether the user can carry on after the error.
// Only unknown fields and schema errors are programming errors.
func IsRecoverable(err error) bool {
	t, ok := errorType(err)
	if !ok {
		return false
	}
	return t != ErrTypeUnknownField && t != ErrTypeSchema
}

// GetTroubleshootingHint returns user-friendly advice for an error
func GetTroubleshootingHint(err error) string {
	var sErr *Error
	if !errors.As(err, &sErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch sErr.Type {
	case ErrTypeUnknownField:
		return strings.Join([]string{
			"The settings schema does not define field " + sErr.FieldID + ".",
			"Troubleshooting:",
			"  • Check the field ids in your schema file",
			"  • Run 'ephemeris-cfg schema' to list the available fields",
		}, "\n")

	case ErrTypeInvalidValue:
		return strings.Join([]string{
			"The value does not fit the field.",
			"Troubleshooting:",
			"  • Toggles take true or false",
			"  • Sliders take a number; out-of-range numbers are clamped",
			"  • Other fields remain editable",
		}, "\n")

	case ErrTypeAlreadySubmitted:
		return "These settings were already sent to the watch. Start a new session to change them."

	case ErrTypeInvalidState:
		return "Wait for the location lookup to finish, then try again."

	case ErrTypeAbandoned:
		return "The configuration was closed without saving. Start a new session to change settings."

	case ErrTypeSchema:
		return strings.Join([]string{
			"The settings schema is malformed.",
			"Troubleshooting:",
			"  • Field ids must be unique and non-empty",
			"  • Sliders need min <= max and a positive step",
			"  • Kinds are toggle, slider or text",
		}, "\n")

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var sErr *Error
	if !errors.As(err, &sErr) {
		return err.Error()
	}

	switch sErr.Type {
	case ErrTypeUnknownField:
		return fmt.Sprintf("Unknown setting %q", sErr.FieldID)
	case ErrTypeInvalidValue:
		return fmt.Sprintf("Rejected edit to %s: %s", sErr.FieldID, sErr.Message)
	case ErrTypeAlreadySubmitted:
		return "Settings already saved"
	case ErrTypeInvalidState:
		return sErr.Message
	case ErrTypeAbandoned:
		return "Configuration closed without saving"
	default:
		return sErr.Message
	}
}
