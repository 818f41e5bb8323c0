package service

import (
	"errors"

	"github.com/article-threads-api/internal/validation"
)

// ErrorKind classifies a failed operation
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindForbidden
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is returned by every service operation that fails. Message is safe
// to show to clients; Err carries the underlying store error, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Fields  []validation.ValidationError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a service error, or zero for any other error
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return 0
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// invalid reports the first failed rule as the message and keeps all of them
func invalid(fields []validation.ValidationError) *Error {
	return &Error{Kind: KindValidation, Message: fields[0].Message, Fields: fields}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func forbiddenError() *Error {
	return &Error{Kind: KindForbidden, Message: "Forbidden"}
}

func persistenceError(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}
