package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindAuth      Kind = "auth"
	KindTransport Kind = "transport"
)

// Error is a failure scoped to one credential field, so callers can surface
// it next to the token or username that caused it.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Field, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Auth reports an unrecognised identity or a provider-side authorization failure.
func Auth(field, message string, err error) *Error {
	return &Error{Kind: KindAuth, Field: field, Message: message, Err: err}
}

// Transport reports an unreachable provider or a response that could not be read.
func Transport(field, message string, err error) *Error {
	return &Error{Kind: KindTransport, Field: field, Message: message, Err: err}
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func IsAuth(err error) bool {
	e := As(err)
	return e != nil && e.Kind == KindAuth
}

func IsTransport(err error) bool {
	e := As(err)
	return e != nil && e.Kind == KindTransport
}
