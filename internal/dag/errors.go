package dag

import (
	"errors"
	"fmt"
)

// GraphError represents a violated graph invariant.
type GraphError struct {
	// Code identifies the error category.
	Code GraphErrorCode

	// Message is a human-readable description.
	Message string

	// NodeKey identifies the offending node, when known.
	NodeKey string
}

// GraphErrorCode categorizes graph errors.
type GraphErrorCode string

const (
	// ErrCodeMissingNode indicates an edge endpoint that is not a member
	// of the graph.
	ErrCodeMissingNode GraphErrorCode = "MISSING_NODE"

	// ErrCodeCycleDetected indicates the graph is not acyclic.
	ErrCodeCycleDetected GraphErrorCode = "CYCLE_DETECTED"
)

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.NodeKey != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.NodeKey)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewMissingNodeError creates a GraphError for an edge endpoint that has
// not been added to the graph.
func NewMissingNodeError(nodeKey string) *GraphError {
	return &GraphError{
		Code:    ErrCodeMissingNode,
		Message: "edge endpoint is not a member of the graph",
		NodeKey: nodeKey,
	}
}

// NewCycleError creates a GraphError naming one node on a detected cycle.
func NewCycleError(nodeKey string) *GraphError {
	return &GraphError{
		Code:    ErrCodeCycleDetected,
		Message: "graph contains a cycle",
		NodeKey: nodeKey,
	}
}

// IsMissingNode returns true if the error is a missing-endpoint error.
// Uses errors.As to handle wrapped errors.
func IsMissingNode(err error) bool {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeMissingNode
	}
	return false
}

// IsCycle returns true if the error is a cycle detection error.
// Uses errors.As to handle wrapped errors.
func IsCycle(err error) bool {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeCycleDetected
	}
	return false
}
