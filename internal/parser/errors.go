package parser

import (
	"errors"
	"fmt"
)

// ParseError represents an error detected while scanning a trace.
type ParseError struct {
	// Code identifies the error category.
	Code ParseErrorCode

	// Message is a human-readable description.
	Message string

	// Line is the offending trace line, when known.
	Line string
}

// ParseErrorCode categorizes parse errors.
type ParseErrorCode string

const (
	// ErrCodeBadLine indicates a line that fails every classification
	// pattern or a field that fails to parse.
	ErrCodeBadLine ParseErrorCode = "BAD_LINE"

	// ErrCodeNotFound indicates a required correlation entry, fd-table
	// entry, or capture group is absent.
	ErrCodeNotFound ParseErrorCode = "NOT_FOUND"

	// ErrCodeInvalidType indicates a stat-family target that is neither a
	// regular file nor a directory. Handlers downgrade this to a NoOp.
	ErrCodeInvalidType ParseErrorCode = "INVALID_TYPE"
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("%s: %s (line=%q)", e.Code, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadLineError creates a ParseError for an unclassifiable line or an
// unparsable field.
func NewBadLineError(message, line string) *ParseError {
	return &ParseError{Code: ErrCodeBadLine, Message: message, Line: line}
}

// NewNotFoundError creates a ParseError for a missing key or capture.
func NewNotFoundError(what string) *ParseError {
	return &ParseError{Code: ErrCodeNotFound, Message: what + " not found"}
}

// NewInvalidTypeError creates a ParseError for a non-file, non-directory
// stat target.
func NewInvalidTypeError(detail string) *ParseError {
	return &ParseError{Code: ErrCodeInvalidType, Message: "invalid type: " + detail}
}

// IsNotFound returns true if the error is a missing-key error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeNotFound
	}
	return false
}

// IsInvalidType returns true if the error is a non-file-target error.
// Uses errors.As to handle wrapped errors.
func IsInvalidType(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeInvalidType
	}
	return false
}

// IsBadLine returns true if the error is a malformed-line error.
// Uses errors.As to handle wrapped errors.
func IsBadLine(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeBadLine
	}
	return false
}
