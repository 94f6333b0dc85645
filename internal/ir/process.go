package ir

import (
	"fmt"
	"strings"
)

// Process is one traced process: a pid and the ordered log of operations
// it performed. The log is append-only during parsing and read-only
// afterwards; the scheduling phase treats Process as a graph-node payload.
type Process struct {
	pid int
	ops []*Cell
}

// NewProcess creates an empty process for pid.
func NewProcess(pid int) *Process {
	return &Process{pid: pid}
}

// PID returns the process id.
func (p *Process) PID() int { return p.pid }

// AddOp appends an operation cell to the log.
func (p *Process) AddOp(cell *Cell) {
	p.ops = append(p.ops, cell)
}

// Ops returns the operation log in trace order.
func (p *Process) Ops() []*Cell {
	ops := make([]*Cell, len(p.ops))
	copy(ops, p.ops)
	return ops
}

// OpCount returns the number of logged operations.
func (p *Process) OpCount() int { return len(p.ops) }

// String renders one "pid operation" line per logged operation.
func (p *Process) String() string {
	var b strings.Builder
	for _, op := range p.ops {
		fmt.Fprintf(&b, "%d %s\n", p.pid, op)
	}
	return b.String()
}
