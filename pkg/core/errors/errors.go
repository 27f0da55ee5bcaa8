// ============================================================================
// etlap - Menu nutrition export
// ============================================================================
//
// Package:     errors
// Description: Coded error type carrying operation and detail context
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Error represents a structured error with a code, the failing operation and
// optional details. The parsing core never returns one; only the adapters
// around it do.
type Error struct {
	message   string
	cause     error
	code      Code
	operation string
	details   map[string]interface{}
}

// New creates a new Error with the given message
func New(message string) *Error {
	return &Error{
		message: message,
		code:    CodeUnknown,
		details: make(map[string]interface{}),
	}
}

// Newf creates a new Error with a formatted message
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with additional context. The code of a
// wrapped *Error is inherited.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	e := New(message)
	e.cause = err
	var inner *Error
	if stderrors.As(err, &inner) {
		e.code = inner.code
	}
	return e
}

// WithCode sets the error code
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	return e
}

// WithOperation sets the operation that failed
func (e *Error) WithOperation(operation string) *Error {
	e.operation = operation
	return e
}

// WithDetail adds a detail value
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.details[key] = value
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.code.String())
	b.WriteString("] ")
	b.WriteString(e.message)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the error code
func (e *Error) Code() Code {
	return e.code
}

// Message returns the message without code or cause
func (e *Error) Message() string {
	return e.message
}

// Operation returns the failing operation
func (e *Error) Operation() string {
	return e.operation
}

// Details returns a copy of the error details
func (e *Error) Details() map[string]interface{} {
	out := make(map[string]interface{}, len(e.details))
	for k, v := range e.details {
		out[k] = v
	}
	return out
}

// Fields returns the error context as flat key/value pairs for logging
func (e *Error) Fields() []interface{} {
	kv := []interface{}{"error_code", e.code.String()}
	if e.operation != "" {
		kv = append(kv, "operation", e.operation)
	}

	keys := make([]string, 0, len(e.details))
	for k := range e.details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, e.details[k])
	}
	return kv
}

// GetCode returns the code of the first *Error in the chain, or CodeUnknown
func GetCode(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code
func HasCode(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}
