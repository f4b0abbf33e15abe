package apierrors

import (
	"errors"
	"fmt"
)

// Error is the error value returned by the API client and the view models.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = Registry.Message(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error carrying the registered default message.
func New(code string) *Error {
	return &Error{Code: code, Message: Registry.Message(code), Status: Registry.HTTPStatus(code)}
}

// NewWithMessage creates an error with a custom message. An empty message
// falls back to the registered default.
func NewWithMessage(code, message string) *Error {
	e := New(code)
	if message != "" {
		e.Message = message
	}
	return e
}

// Wrap attaches a cause to a registered code.
func Wrap(code string, err error) *Error {
	e := New(code)
	e.Err = err
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// IsUnauthorized reports whether err means the session must be re-established.
func IsUnauthorized(err error) bool {
	return Is(err, CodeUnauthorized)
}

// UserMessage returns the text shown to the user for err. Errors outside the
// taxonomy render as fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
