// Package testutil provides builders for assembling process logs and
// trace files in tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tracesched/internal/ir"
)

// ProcessSet assembles processes the way a parse does: one shared
// interner and one shared clock, so files intern to the same pointer
// and seq stamps are unique across processes.
type ProcessSet struct {
	clock    *ir.Clock
	interner *ir.Interner
	procs    []*ir.Process
}

// NewProcessSet creates an empty set.
func NewProcessSet() *ProcessSet {
	return &ProcessSet{
		clock:    ir.NewClock(),
		interner: ir.NewInterner(),
	}
}

// File interns path in the set's interner.
func (s *ProcessSet) File(path string) *ir.File {
	return s.interner.Intern(path)
}

// Process registers a new process and returns its builder.
func (s *ProcessSet) Process(pid int) *ProcessBuilder {
	proc := ir.NewProcess(pid)
	s.procs = append(s.procs, proc)
	return &ProcessBuilder{set: s, proc: proc}
}

// Processes returns the registered processes in creation order.
func (s *ProcessSet) Processes() []*ir.Process {
	out := make([]*ir.Process, len(s.procs))
	copy(out, s.procs)
	return out
}

// ProcessBuilder appends operations to one process.
type ProcessBuilder struct {
	set  *ProcessSet
	proc *ir.Process
}

// Proc returns the process under construction.
func (b *ProcessBuilder) Proc() *ir.Process { return b.proc }

// Add appends op wrapped in a clock-stamped cell and returns the cell.
func (b *ProcessBuilder) Add(op ir.Operation) *ir.Cell {
	cell := ir.NewCell(op, b.set.clock.Next())
	b.proc.AddOp(cell)
	return cell
}

func (b *ProcessBuilder) Read(path string) *ir.Cell {
	return b.Add(ir.Read(b.set.File(path), 0, 1))
}

func (b *ProcessBuilder) Write(path string) *ir.Cell {
	return b.Add(ir.Write(b.set.File(path), 0, 1, `"x"`))
}

func (b *ProcessBuilder) Mkdir(path string) *ir.Cell {
	return b.Add(ir.Mkdir(b.set.File(path), "0755"))
}

func (b *ProcessBuilder) Mknod(path string) *ir.Cell {
	return b.Add(ir.Mknod(b.set.File(path)))
}

func (b *ProcessBuilder) Remove(path string) *ir.Cell {
	return b.Add(ir.Remove(b.set.File(path)))
}

func (b *ProcessBuilder) Truncate(path string) *ir.Cell {
	return b.Add(ir.Truncate(b.set.File(path)))
}

func (b *ProcessBuilder) Rename(path, newPath string) *ir.Cell {
	return b.Add(ir.Rename(b.set.File(path), newPath))
}

func (b *ProcessBuilder) Stat(path string) *ir.Cell {
	return b.Add(ir.Stat(b.set.File(path)))
}

// WriteTrace writes lines as a trace file under t.TempDir and returns
// its path.
func WriteTrace(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.log")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}
	return path
}
