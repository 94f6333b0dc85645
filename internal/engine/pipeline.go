package engine

import (
	"tracesched/internal/ir"
	"tracesched/internal/parser"
)

// Parse runs the full front half of the pipeline: scan the trace at
// tracePath, build the access graph, and mark cross-process
// preconditions. The returned processes carry populated pre-lists and
// are ready for Order.
func Parse(tracePath string) ([]*ir.Process, error) {
	procs, err := parser.New(tracePath).Parse()
	if err != nil {
		return nil, err
	}
	return markAll(procs)
}

// markAll builds and marks the access graph for procs.
func markAll(procs []*ir.Process) ([]*ir.Process, error) {
	graph, err := NewDependencyGraph(procs)
	if err != nil {
		return nil, err
	}
	if err := graph.MarkDependencies(); err != nil {
		return nil, err
	}
	return graph.Processes(), nil
}

// MarkProcesses marks cross-process preconditions on already-parsed
// processes. Split out from Parse so in-memory traces can use the same
// path.
func MarkProcesses(procs []*ir.Process) ([]*ir.Process, error) {
	return markAll(procs)
}

// Schedule drains an ordered graph into batches until it is empty.
func Schedule(graph *DependencyGraph) ([][]*ir.Process, error) {
	var batches [][]*ir.Process
	for {
		batch, err := graph.AvailableSet()
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return batches, nil
		}
		batches = append(batches, batch)
	}
}
