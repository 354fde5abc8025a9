package task

import "errors"

// Result is the envelope every task operation replies with.
// Data is set only on success; Error and Kind only on failure.
type Result[T any] struct {
	Success bool      `json:"success"`
	Data    *T        `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Success: true, Data: &v}
}

// Fail wraps err. Anything that is not an *Error becomes the generic
// internal failure so storage details never reach the caller.
func Fail[T any](err error) Result[T] {
	var e *Error
	if !errors.As(err, &e) {
		e = ErrInternal
	}
	return Result[T]{Error: e.Message, Kind: e.Kind}
}

// From builds a result from a value/error pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return OK(v)
}

// Unwrap turns the envelope back into a value/error pair.
func (r Result[T]) Unwrap() (T, error) {
	var zero T
	if !r.Success {
		kind := r.Kind
		if kind == "" {
			kind = KindInternal
		}
		return zero, &Error{Kind: kind, Message: r.Error}
	}
	if r.Data == nil {
		return zero, nil
	}
	return *r.Data, nil
}
