// Package errors marks errors with where they were wrapped,
// and defines the kinds of errors shared across backends.
//
//	return xe.WrapWithNote("listing drives", err)
//
// The message of a wrapped error reads as a chain, innermost last:
//
//	@ pkg.func "file.go" l12 (listing drives) <- cause
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrConfiguration is the root of errors caused by missing or broken configuration.
//
// This is fatal: a process should not serve requests without a valid configuration.
var ErrConfiguration = errors.New("configuration error")

// ErrValidation is the root of errors caused by request or response shapes
// which do not satisfy their declared schema.
var ErrValidation = errors.New("validation error")

// Configuration creates an error which wraps ErrConfiguration.
func Configuration(format string, args ...any) error {
	cause := fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
	return at(callerOf(1), "", cause)
}

// Located is an error with the place where it was created or wrapped.
type Located struct {
	frame runtime.Frame
	note  string
	cause error
}

func (e *Located) File() string {
	return e.frame.File
}

func (e *Located) Line() int {
	return e.frame.Line
}

func (e *Located) Error() string {
	where := fmt.Sprintf(`@ %s "%s" l%d`, e.frame.Function, e.frame.File, e.frame.Line)
	if e.note != "" {
		where += " (" + e.note + ")"
	}
	return where + " <- " + e.cause.Error()
}

func (e *Located) Unwrap() error {
	return e.cause
}

func New(text string) error {
	return at(callerOf(1), "", errors.New(text))
}

func Wrap(err error) error {
	return at(callerOf(1), "", err)
}

func WrapWithNote(note string, err error) error {
	return at(callerOf(1), note, err)
}

func at(frame runtime.Frame, note string, err error) error {
	return &Located{frame: frame, note: note, cause: err}
}

// callerOf returns the frame of the caller of the function calling callerOf, skip levels up.
func callerOf(skip int) runtime.Frame {
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+2, pcs) == 0 {
		return runtime.Frame{Function: "(unknown func)", File: "?", Line: -1}
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	if frame.Function == "" {
		frame.Function = "(unknown func)"
	}
	return frame
}
