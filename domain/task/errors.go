package task

import "errors"

// ErrorKind classifies a failed task operation.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindValidation      ErrorKind = "validation"
	KindNotFound        ErrorKind = "not_found"
	KindInternal        ErrorKind = "internal"
)

// Error is a task operation failure with a caller-visible message.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

var (
	// ErrNotAuthenticated is returned when an operation runs without a caller identity.
	ErrNotAuthenticated = &Error{Kind: KindUnauthenticated, Message: "Not authenticated"}
	// ErrNotFound is returned for a missing task and for a task owned by someone else.
	ErrNotFound = &Error{Kind: KindNotFound, Message: "Task not found"}
	// ErrInternal is the generic failure surfaced for storage problems.
	ErrInternal = &Error{Kind: KindInternal, Message: "An internal error occurred"}

	ErrTitleRequired      = &Error{Kind: KindValidation, Message: "Title is required"}
	ErrTitleTooLong       = &Error{Kind: KindValidation, Message: "Title must be less than 255 characters"}
	ErrDescriptionTooLong = &Error{Kind: KindValidation, Message: "Description must be less than 1000 characters"}
	ErrCompletedRequired  = &Error{Kind: KindValidation, Message: "Completed is required"}
)

// Validation returns a validation failure with the given message.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Internal hides cause behind the generic internal failure.
// The cause stays reachable through errors.Unwrap for logging.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, cause: cause}
}

// KindOf returns the kind of err. Errors that are not *Error are internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
