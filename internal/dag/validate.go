package dag

// Validate checks that the graph is acyclic. It returns nil for a DAG and
// a GraphError with code CYCLE_DETECTED naming one node on a cycle
// otherwise.
//
// Topological ordering and layered extraction assume acyclicity as a
// caller contract; Validate exists for callers that build graphs from
// untrusted input and want the contract checked up front.
func (g *Graph) Validate() error {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully explored
	)

	color := make(map[string]int, len(g.nodes))

	var visit func(n *Node) *GraphError
	visit = func(n *Node) *GraphError {
		key := n.data.Key()
		switch color[key] {
		case gray:
			return NewCycleError(key)
		case black:
			return nil
		}
		color[key] = gray
		for _, next := range n.out {
			if err := visit(next); err != nil {
				return err
			}
		}
		color[key] = black
		return nil
	}

	for _, n := range g.nodes {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}
