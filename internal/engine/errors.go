package engine

import (
	"errors"
	"fmt"
)

// EngineError represents an error detected while building or draining
// the dependency graph.
type EngineError struct {
	// Code identifies the error category.
	Code EngineErrorCode

	// Message is a human-readable description.
	Message string

	// NodeKey identifies the affected graph node, when known.
	NodeKey string
}

// EngineErrorCode categorizes engine errors.
type EngineErrorCode string

const (
	// ErrCodeInvalidType indicates the wrong payload accessor was used
	// on a graph node.
	ErrCodeInvalidType EngineErrorCode = "INVALID_TYPE"

	// ErrCodeCyclicSchedule indicates a non-empty schedule graph with no
	// runnable process.
	ErrCodeCyclicSchedule EngineErrorCode = "CYCLIC_SCHEDULE"
)

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.NodeKey != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.NodeKey)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidTypeError creates an INVALID_TYPE error for node key.
func NewInvalidTypeError(message, nodeKey string) *EngineError {
	return &EngineError{
		Code:    ErrCodeInvalidType,
		Message: message,
		NodeKey: nodeKey,
	}
}

// NewCyclicScheduleError creates a CYCLIC_SCHEDULE error.
func NewCyclicScheduleError(message string) *EngineError {
	return &EngineError{
		Code:    ErrCodeCyclicSchedule,
		Message: message,
	}
}

// IsInvalidType reports whether err is an INVALID_TYPE engine error.
func IsInvalidType(err error) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code == ErrCodeInvalidType
	}
	return false
}

// IsCyclicSchedule reports whether err is a CYCLIC_SCHEDULE engine error.
func IsCyclicSchedule(err error) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code == ErrCodeCyclicSchedule
	}
	return false
}
