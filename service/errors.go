// Package service implements the business logic on top of the repositories.
package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers translate these into HTTP failures.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid request")
)

// apiError carries a user-facing message on top of an error kind.
type apiError struct {
	kind error
	msg  string
}

func (e *apiError) Error() string { return e.msg }
func (e *apiError) Unwrap() error { return e.kind }

func notFoundf(format string, args ...any) error {
	return &apiError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...any) error {
	return &apiError{kind: ErrForbidden, msg: fmt.Sprintf(format, args...)}
}

func unauthorizedf(format string, args ...any) error {
	return &apiError{kind: ErrUnauthorized, msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &apiError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

func invalidf(format string, args ...any) error {
	return &apiError{kind: ErrInvalid, msg: fmt.Sprintf(format, args...)}
}
