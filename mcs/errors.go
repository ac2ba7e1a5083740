package mcs

import (
	"errors"
	"fmt"
)

// UserError reports a condition the caller can correct: a simulation
// directory that already exists, an unknown analysis or parameter name, a
// malformed distribution spec row, or a run left with nothing to sample.
// UserErrors abort before any trial executes.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

// Userf builds a UserError with fmt.Sprintf semantics.
func Userf(format string, args ...any) error {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// SystemError reports an internal or environmental failure: unreadable or
// unwritable tables, a trial number absent from the trial-data table, an
// unknown distribution shape. A SystemError aborts the current operation but
// is scoped to it; other fields in a batch may still run.
type SystemError struct {
	Msg string
}

func (e *SystemError) Error() string { return e.Msg }

// Systemf builds a SystemError with fmt.Sprintf semantics.
func Systemf(format string, args ...any) error {
	return &SystemError{Msg: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err wraps a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// IsSystemError reports whether err wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}
