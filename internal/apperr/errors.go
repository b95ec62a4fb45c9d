// Package apperr defines the error kinds shared by the services and mapped to
// HTTP status codes by the routing layer.
package apperr

import "errors"

// Kinds. Every error produced by this package unwraps to exactly one of these.
var (
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Error carries a client-facing message together with its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error {
	return New(ErrValidation, message)
}

func Unauthorized(message string) *Error {
	return New(ErrUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(ErrForbidden, message)
}

// NotFound builds an error such as "book not found".
func NotFound(resource string) *Error {
	return New(ErrNotFound, resource+" not found")
}

func AlreadyExists(message string) *Error {
	return New(ErrAlreadyExists, message)
}

// Message returns the client-facing message of err, or fallback when err
// does not carry one.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}

// Kind returns the kind err unwraps to, or nil for unexpected errors.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrAlreadyExists} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
