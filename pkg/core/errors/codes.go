// ============================================================================
// etlap - Menu nutrition export
// ============================================================================
//
// Package:     errors
// Description: Error codes used to classify failures of the I/O adapters
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package errors

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Input documents
	CodeInvalidFormat Code = "INVALID_FORMAT"
	CodeIOError       Code = "IO_ERROR"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// Storage
	CodeDatabaseError Code = "DATABASE_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsConfig reports whether the code belongs to the configuration group
func (c Code) IsConfig() bool {
	switch c {
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return true
	default:
		return false
	}
}
