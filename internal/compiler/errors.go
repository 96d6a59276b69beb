package compiler

import (
	"fmt"
)

// ErrorKind classifies the fatal error conditions a compile can end in.
type ErrorKind string

const (
	// ErrStructure indicates malformed section nesting or unusable input.
	ErrStructure ErrorKind = "structure"
	// ErrCircularImport indicates a cycle in the component import graph.
	ErrCircularImport ErrorKind = "circular-import"
	// ErrMissingImport indicates an import path that could not be loaded.
	ErrMissingImport ErrorKind = "missing-import"
	// ErrNormalize indicates the script normalization pass rejected the
	// generated code.
	ErrNormalize ErrorKind = "normalize"
	// ErrInternal wraps any unexpected failure so callers always receive
	// one error shape at the top level.
	ErrInternal ErrorKind = "internal"
)

// Error is the single fatal error shape returned by the compiler.
// Component and File identify where the error was raised; when an error
// crosses an import boundary it is re-wrapped with the importing
// component's name.
type Error struct {
	Kind      ErrorKind
	Component string
	File      string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Component != "" && e.File != "":
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Component, e.File, e.Err)
	case e.Component != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Component, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError creates a compile error of the given kind.
func newError(kind ErrorKind, component, file string, format string, args ...any) *Error {
	return &Error{
		Kind:      kind,
		Component: component,
		File:      file,
		Err:       fmt.Errorf(format, args...),
	}
}

// wrapError ensures err is an *Error, wrapping unexpected failures into the
// generic internal kind.
func wrapError(err error, component, file string) *Error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*Error); ok {
		return ce
	}
	return &Error{Kind: ErrInternal, Component: component, File: file, Err: err}
}

// Warning is a non-fatal diagnostic. Warnings never abort a compile; they
// are collected and surfaced to the caller in development mode.
type Warning struct {
	Message    string
	File       string
	Line       int
	Column     int
	Suggestion string
}

// warningf builds a warning for the given file with a formatted message.
func warningf(file string, format string, args ...any) Warning {
	return Warning{File: file, Message: fmt.Sprintf(format, args...)}
}
