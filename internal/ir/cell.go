package ir

import (
	"fmt"
	"strings"
	"sync"
)

// PreOperation names an operation, performed by another process, that must
// be judged executed before the operation holding it may run.
type PreOperation struct {
	Op *Cell // the prerequisite operation
	By int   // pid of the process performing it
}

func (p PreOperation) String() string {
	return fmt.Sprintf("pid: %d, %s", p.By, p.Op)
}

// Cell is a shared, mutable wrapper around one Operation.
//
// The same Cell is reachable from the owning process's operation log and
// from dependency graph edges; dependency marking appends to the pre-list
// through whichever reference discovered the constraint, and every owner
// observes the mutation. The mutex guards the pre-list and the executed
// flag; Operation itself is immutable.
//
// Mark-then-read ordering: MarkDependencies must complete before any
// caller consults CanExecute, since pre-list membership, not insertion
// order, determines readiness.
type Cell struct {
	mu       sync.Mutex
	op       Operation
	seq      int64
	pre      []PreOperation
	executed bool
}

// NewCell wraps op with the given clock sequence number. The seq is the
// cell's identity for graph-edge labeling and must be unique within a
// parse session.
func NewCell(op Operation, seq int64) *Cell {
	return &Cell{op: op, seq: seq}
}

// Op returns the wrapped operation value.
func (c *Cell) Op() Operation { return c.op }

// Seq returns the cell's clock sequence number.
func (c *Cell) Seq() int64 { return c.seq }

// Name returns the wrapped operation's variant name.
func (c *Cell) Name() string { return c.op.Name() }

// Target returns the wrapped operation's file, or nil.
func (c *Cell) Target() *File { return c.op.Target() }

// Key identifies the cell as a graph edge label. Keys are unique per cell
// because sequence numbers are unique per parse session.
func (c *Cell) Key() string {
	return fmt.Sprintf("op:%d", c.seq)
}

// AddPre appends a prerequisite to the pre-list.
func (c *Cell) AddPre(pre PreOperation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pre = append(c.pre, pre)
}

// PreList returns a copy of the pre-list.
func (c *Cell) PreList() []PreOperation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PreOperation, len(c.pre))
	copy(out, c.pre)
	return out
}

// CanExecute reports whether every prerequisite has been executed. An
// empty pre-list means the operation is immediately runnable.
func (c *Cell) CanExecute() bool {
	for _, pre := range c.PreList() {
		if !pre.Op.Executed() {
			return false
		}
	}
	return true
}

// Executed reports whether the operation has been marked executed.
func (c *Cell) Executed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executed
}

// MarkExecuted flags the operation as executed. The flag is irreversible.
func (c *Cell) MarkExecuted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.executed = true
}

func (c *Cell) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s, executed: %t, pre operations: ", c.op, c.executed)
	if len(c.pre) == 0 {
		b.WriteString("[]")
		return b.String()
	}
	b.WriteString("[\n")
	for _, pre := range c.pre {
		fmt.Fprintf(&b, "\t\t%s\n", pre)
	}
	b.WriteString("\t\t]")
	return b.String()
}
