package engine

import (
	"tracesched/internal/dag"
	"tracesched/internal/ir"
)

// DependencyGraph relates processes to the files their operations touch.
// Before MarkDependencies it is a plain bipartite access graph; Order
// derives a process-only scheduling graph from it.
type DependencyGraph struct {
	graph *dag.Graph
	procs []*ir.Process
}

// NewDependencyGraph builds the access graph: one node per process, one
// node per touched file, and one labeled edge per file-targeting
// operation. Operations without a file target (GetRandom, Clone, NoOp)
// contribute no edges.
func NewDependencyGraph(procs []*ir.Process) (*DependencyGraph, error) {
	g := dag.New()
	for _, proc := range procs {
		procNode := g.AddNode(ProcessNode(proc))
		for _, cell := range proc.Ops() {
			file := cell.Target()
			if file == nil {
				continue
			}
			fileNode := g.AddNode(FileNode(file))
			if _, err := g.AddEdge(cell, procNode, fileNode); err != nil {
				return nil, err
			}
		}
	}
	return &DependencyGraph{graph: g, procs: procs}, nil
}

// Processes returns the processes in trace appearance order.
func (d *DependencyGraph) Processes() []*ir.Process {
	out := make([]*ir.Process, len(d.procs))
	copy(out, d.procs)
	return out
}

// Graph exposes the underlying graph for inspection and rendering.
func (d *DependencyGraph) Graph() *dag.Graph { return d.graph }

func (d *DependencyGraph) String() string { return d.graph.String() }

// MarkDependencies populates operation pre-lists for every contended
// file. For each pair of incoming edges on a file node, the precedence
// policy decides whether one operation must complete before the other;
// qualifying pairs from different processes get a PreOperation entry on
// the dependent cell. Same-process pairs are never linked because the
// trace already orders them.
func (d *DependencyGraph) MarkDependencies() error {
	for _, node := range d.graph.Nodes() {
		payload, ok := node.Data().(*GraphNode)
		if !ok || !payload.IsFile() {
			continue
		}
		if node.InDegree() <= 1 {
			continue
		}
		incoming, ok := d.graph.EdgesTo(node)
		if !ok {
			// No edges means no constraints to propagate.
			continue
		}

		for _, current := range incoming {
			currentCell := current.Label().(*ir.Cell)
			currentProc, err := sourceProcess(current)
			if err != nil {
				return err
			}
			for _, other := range incoming {
				if other == current {
					continue
				}
				otherProc, err := sourceProcess(other)
				if err != nil {
					return err
				}
				if otherProc.PID() == currentProc.PID() {
					continue
				}
				otherCell := other.Label().(*ir.Cell)
				if mustPrecede(currentCell.Name(), otherCell.Name()) {
					otherCell.AddPre(ir.PreOperation{Op: currentCell, By: currentProc.PID()})
				}
			}
		}
	}
	return nil
}

// mustPrecede reports whether an operation named current must complete
// before an operation named other may touch the same file.
//
// Creation calls gate every differently-named access, writes gate reads
// and destructive calls, reads gate destructive calls. Stat-family
// calls never constrain anything and run in parallel.
func mustPrecede(current, other string) bool {
	switch current {
	case "Mkdir":
		return other != "Mkdir"
	case "Mknod":
		return other != "Mknod"
	case "Write":
		return other == "Read" || other == "Remove" || other == "Rename" || other == "Truncate"
	case "Read":
		return other == "Remove" || other == "Rename" || other == "Truncate"
	default:
		return false
	}
}

// sourceProcess resolves an edge's source node to its process payload.
func sourceProcess(edge *dag.Edge) (*ir.Process, error) {
	return edge.Source().Data().(*GraphNode).Process()
}
