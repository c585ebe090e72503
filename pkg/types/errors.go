package types

import (
	"errors"
	"fmt"
)

// Connection lifecycle errors.
var (
	ErrIdentityMissing   = errors.New("connection is missing an identity")
	ErrIdentityDuplicate = errors.New("connection identity is already registered")
	ErrUnknownConnection = errors.New("connection is not registered")
)

// ErrUnknownType is returned for an unrecognized attribute type when
// strict types are configured.
var ErrUnknownType = errors.New("unknown attribute type")

// Error codes carried by *Error.
const (
	CodeUnique = "E_UNIQUE"
)

// Error is a normalized engine failure.
type Error struct {
	Code              string
	Message           string
	InvalidAttributes []string

	cause error
}

// NewError returns an Error with the given code that wraps cause.
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:              code,
		Message:           message,
		InvalidAttributes: []string{},
		cause:             cause,
	}
}

// Error returns the error string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the native failure.
func (e *Error) Unwrap() error {
	return e.cause
}

// IsUnique reports whether err is a uniqueness violation.
func IsUnique(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeUnique
}
