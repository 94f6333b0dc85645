package engine

import (
	"strconv"

	"tracesched/internal/ir"
)

type nodeKind int

const (
	nodeProcess nodeKind = iota
	nodeFile
	nodeStart
	nodeEnd
)

// GraphNode is the payload of a dependency-graph node: a process, a
// file, or one of the two synthetic endpoints used while collapsing
// file nodes.
type GraphNode struct {
	kind nodeKind
	proc *ir.Process
	file *ir.File
}

// ProcessNode wraps proc as a graph node payload.
func ProcessNode(proc *ir.Process) *GraphNode {
	return &GraphNode{kind: nodeProcess, proc: proc}
}

// FileNode wraps file as a graph node payload.
func FileNode(file *ir.File) *GraphNode {
	return &GraphNode{kind: nodeFile, file: file}
}

func startNode() *GraphNode { return &GraphNode{kind: nodeStart} }
func endNode() *GraphNode   { return &GraphNode{kind: nodeEnd} }

// Key implements dag.NodeData. Process and file keys live in disjoint
// namespaces so a pid can never collide with a path.
func (n *GraphNode) Key() string {
	switch n.kind {
	case nodeProcess:
		return "process:" + strconv.Itoa(n.proc.PID())
	case nodeFile:
		return "file:" + n.file.Path()
	case nodeStart:
		return "start"
	default:
		return "end"
	}
}

func (n *GraphNode) String() string {
	switch n.kind {
	case nodeProcess:
		return "process " + strconv.Itoa(n.proc.PID())
	case nodeFile:
		return n.file.String()
	case nodeStart:
		return "start"
	default:
		return "end"
	}
}

// IsProcess reports whether the node wraps a process.
func (n *GraphNode) IsProcess() bool { return n.kind == nodeProcess }

// IsFile reports whether the node wraps a file.
func (n *GraphNode) IsFile() bool { return n.kind == nodeFile }

// Process returns the wrapped process. Accessing a non-process node
// yields an INVALID_TYPE error.
func (n *GraphNode) Process() (*ir.Process, error) {
	if n.kind != nodeProcess {
		return nil, NewInvalidTypeError("node does not wrap a process", n.Key())
	}
	return n.proc, nil
}

// File returns the wrapped file. Accessing a non-file node yields an
// INVALID_TYPE error.
func (n *GraphNode) File() (*ir.File, error) {
	if n.kind != nodeFile {
		return nil, NewInvalidTypeError("node does not wrap a file", n.Key())
	}
	return n.file, nil
}
