package services

import (
	"errors"
	"fmt"
)

// Error categories. Handlers map these to HTTP status codes with errors.Is;
// the wrapped message carries the specific reason for the caller.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func notFoundf(format string, args ...interface{}) error {
	return &serviceError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...interface{}) error {
	return &serviceError{kind: ErrForbidden, msg: fmt.Sprintf(format, args...)}
}

func invalidStatef(format string, args ...interface{}) error {
	return &serviceError{kind: ErrInvalidState, msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...interface{}) error {
	return &serviceError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) error {
	return &serviceError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}
