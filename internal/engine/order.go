package engine

import (
	"sort"

	"tracesched/internal/dag"
	"tracesched/internal/ir"
)

// writesFile reports whether an operation name mutates file content or
// existence.
func writesFile(name string) bool {
	switch name {
	case "Mkdir", "Mknod", "Write", "Truncate":
		return true
	default:
		return false
	}
}

// Order derives the process-only scheduling graph.
//
// The marked access graph is first simplified: per (process, file) pair
// all parallel edges summarize to a single Write or Read label, where
// any mutating operation makes the pair a Write. Write edges keep their
// process-to-file direction; Read edges are flipped, since a reader
// depends on whichever process produced the file. File nodes are then
// collapsed into direct writer-to-reader edges. A file with no writer
// borrows a synthetic start node as its producer, a file with no reader
// a synthetic end node as its consumer; both synthetics are removed
// before the graph is returned.
func (d *DependencyGraph) Order() (*DependencyGraph, error) {
	oriented, err := d.orient()
	if err != nil {
		return nil, err
	}

	out := dag.New()
	for _, proc := range d.procs {
		out.AddNode(ProcessNode(proc))
	}
	start := out.AddNode(startNode())
	end := out.AddNode(endNode())

	for _, fileNode := range oriented.Nodes() {
		payload := fileNode.Data().(*GraphNode)
		if !payload.IsFile() {
			continue
		}
		file, err := payload.File()
		if err != nil {
			return nil, err
		}

		writers := collapseSources(out, fileNode)
		if len(writers) == 0 {
			writers = []*dag.Node{start}
		}
		readers := collapseTargets(out, fileNode)
		if len(readers) == 0 {
			readers = []*dag.Node{end}
		}

		for _, writer := range writers {
			for _, reader := range readers {
				if writer == reader {
					continue
				}
				if _, err := out.AddEdge(dag.StringLabel(file.Path()), writer, reader); err != nil {
					return nil, err
				}
			}
		}
	}

	out.RemoveNode(start)
	out.RemoveNode(end)

	return &DependencyGraph{graph: out, procs: d.procs}, nil
}

// orient builds the intermediate graph of summarized, direction-correct
// edges: Write pairs run process to file, Read pairs file to process.
func (d *DependencyGraph) orient() (*dag.Graph, error) {
	oriented := dag.New()

	for _, procNode := range d.graph.Nodes() {
		payload := procNode.Data().(*GraphNode)
		if !payload.IsProcess() {
			continue
		}
		proc, err := payload.Process()
		if err != nil {
			return nil, err
		}
		from := oriented.AddNode(ProcessNode(proc))

		for _, neighbor := range procNode.Neighbors() {
			file, err := neighbor.Data().(*GraphNode).File()
			if err != nil {
				return nil, err
			}
			edges, ok := d.graph.EdgesBetween(procNode, neighbor)
			if !ok {
				continue
			}

			summary := "Read"
			for _, edge := range edges {
				if writesFile(edge.Label().(*ir.Cell).Name()) {
					summary = "Write"
					break
				}
			}

			to := oriented.AddNode(FileNode(file))
			if summary == "Write" {
				_, err = oriented.AddEdge(dag.StringLabel("Write"), from, to)
			} else {
				_, err = oriented.AddEdge(dag.StringLabel("Read"), to, from)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return oriented, nil
}

// collapseSources maps a file node's incoming processes to their nodes
// in the output graph, deduplicated in first-seen order.
func collapseSources(out *dag.Graph, fileNode *dag.Node) []*dag.Node {
	var sources []*dag.Node
	seen := make(map[string]bool)
	for _, key := range fileNode.IncomingKeys() {
		if seen[key] {
			continue
		}
		seen[key] = true
		if node, ok := out.Lookup(key); ok {
			sources = append(sources, node)
		}
	}
	return sources
}

// collapseTargets maps a file node's outgoing processes to their nodes
// in the output graph.
func collapseTargets(out *dag.Graph, fileNode *dag.Node) []*dag.Node {
	var targets []*dag.Node
	for _, neighbor := range fileNode.Neighbors() {
		if node, ok := out.Lookup(neighbor.Data().Key()); ok {
			targets = append(targets, node)
		}
	}
	return targets
}

// AvailableSet removes and returns the next batch of processes whose
// ordering predecessors have all been returned by earlier calls. The
// batch is sorted ascending by pid. An empty batch means the schedule
// is drained; a non-empty graph with no runnable node is a cycle and
// yields a CYCLIC_SCHEDULE error.
func (d *DependencyGraph) AvailableSet() ([]*ir.Process, error) {
	if d.graph.NodeCount() == 0 {
		return nil, nil
	}

	var ready []*dag.Node
	for _, node := range d.graph.Nodes() {
		if d.graph.InDegreeOf(node) == 0 {
			ready = append(ready, node)
		}
	}
	if len(ready) == 0 {
		return nil, NewCyclicScheduleError("every remaining process is waiting on another")
	}

	batch := make([]*ir.Process, 0, len(ready))
	for _, node := range ready {
		proc, err := node.Data().(*GraphNode).Process()
		if err != nil {
			return nil, err
		}
		batch = append(batch, proc)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].PID() < batch[j].PID() })

	for _, node := range ready {
		d.graph.RemoveNode(node)
	}
	return batch, nil
}
