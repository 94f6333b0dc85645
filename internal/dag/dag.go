package dag

import (
	"fmt"
	"strings"
)

// NodeData is the application payload stored in a graph node.
// Key determines node identity; two payloads with equal keys intern
// to the same node.
type NodeData interface {
	Key() string
	String() string
}

// Label identifies an edge between two nodes. The same node pair may
// carry multiple edges as long as their label keys differ.
type Label interface {
	Key() string
	String() string
}

// StringLabel is a plain string edge label.
type StringLabel string

// Key implements Label.
func (s StringLabel) Key() string { return string(s) }

func (s StringLabel) String() string { return string(s) }

// Node is a graph node. Nodes are created only through Graph.AddNode.
type Node struct {
	data NodeData

	// out holds outgoing neighbors in first-edge insertion order.
	// A neighbor appears once regardless of how many parallel edges
	// point at it.
	out []*Node

	// in holds one source key per incoming edge (non-owning reference,
	// resolved through the graph's node table on demand).
	in []string

	inDegree int
}

// Data returns the node payload.
func (n *Node) Data() NodeData { return n.data }

// InDegree returns the number of incoming edges.
func (n *Node) InDegree() int { return n.inDegree }

// OutDegree returns the number of distinct outgoing neighbors.
func (n *Node) OutDegree() int { return len(n.out) }

// Neighbors returns the outgoing neighbors in insertion order.
func (n *Node) Neighbors() []*Node {
	out := make([]*Node, len(n.out))
	copy(out, n.out)
	return out
}

// IncomingKeys returns the keys of incoming-edge sources, one entry
// per incoming edge.
func (n *Node) IncomingKeys() []string {
	in := make([]string, len(n.in))
	copy(in, n.in)
	return in
}

// Edge is a labeled, directed edge. Edges are created only through
// Graph.AddEdge.
type Edge struct {
	label  Label
	source *Node
	target *Node
}

// Label returns the edge label.
func (e *Edge) Label() Label { return e.label }

// Source returns the edge's source node.
func (e *Edge) Source() *Node { return e.source }

// Target returns the edge's target node.
func (e *Edge) Target() *Node { return e.target }

// key is the identity triple of the edge.
func (e *Edge) key() string {
	return e.source.data.Key() + "\x00" + e.target.data.Key() + "\x00" + e.label.Key()
}

// Graph is a directed graph with labeled edges and identity-based
// node/edge deduplication. The zero value is not usable; call New.
type Graph struct {
	nodes []*Node
	byKey map[string]*Node

	edges  []*Edge
	edgeBy map[string]*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byKey:  make(map[string]*Node),
		edgeBy: make(map[string]*Edge),
	}
}

// AddNode interns a node for data. If a node with the same key already
// exists it is returned unchanged; otherwise a new node is appended.
func (g *Graph) AddNode(data NodeData) *Node {
	if existing, ok := g.byKey[data.Key()]; ok {
		return existing
	}
	node := &Node{data: data}
	g.nodes = append(g.nodes, node)
	g.byKey[data.Key()] = node
	return node
}

// Lookup returns the node interned for key, if any.
func (g *Graph) Lookup(key string) (*Node, bool) {
	n, ok := g.byKey[key]
	return n, ok
}

// Contains reports whether node is a member of the graph.
func (g *Graph) Contains(node *Node) bool {
	if node == nil {
		return false
	}
	member, ok := g.byKey[node.data.Key()]
	return ok && member == node
}

// AddEdge adds a labeled edge from source to target. Both endpoints must
// already be members of the graph; a missing endpoint yields a GraphError
// with code MISSING_NODE. Adding an edge whose (source, target, label)
// triple already exists returns the existing edge.
func (g *Graph) AddEdge(label Label, source, target *Node) (*Edge, error) {
	if !g.Contains(source) {
		return nil, NewMissingNodeError(keyOf(source))
	}
	if !g.Contains(target) {
		return nil, NewMissingNodeError(keyOf(target))
	}

	edge := &Edge{label: label, source: source, target: target}
	if existing, ok := g.edgeBy[edge.key()]; ok {
		return existing, nil
	}

	// Wire adjacency only for genuinely new edges so that in-degree
	// stays in lock-step with the incoming list.
	if !containsNode(source.out, target) {
		source.out = append(source.out, target)
	}
	target.in = append(target.in, source.data.Key())
	target.inDegree++

	g.edges = append(g.edges, edge)
	g.edgeBy[edge.key()] = edge
	return edge, nil
}

// RemoveEdge removes edge from the graph, detaching it from the source's
// outgoing list and the target's incoming list and degree counter.
// Removing an edge that is not a member is a no-op.
func (g *Graph) RemoveEdge(edge *Edge) {
	if _, ok := g.edgeBy[edge.key()]; !ok {
		return
	}
	delete(g.edgeBy, edge.key())
	for i, e := range g.edges {
		if e == edge {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			break
		}
	}

	target := edge.target
	source := edge.source

	target.inDegree--
	for i, key := range target.in {
		if key == source.data.Key() {
			target.in = append(target.in[:i], target.in[i+1:]...)
			break
		}
	}

	// Drop the neighbor entry only when no parallel edge remains.
	if _, ok := g.EdgesBetween(source, target); !ok {
		for i, n := range source.out {
			if n == target {
				source.out = append(source.out[:i], source.out[i+1:]...)
				break
			}
		}
	}
}

// RemoveNode removes node and every edge incident to it, in both
// directions. Degree counters of the surviving neighbors are updated by
// the per-edge removal; this is the only code path that mutates them.
func (g *Graph) RemoveNode(node *Node) {
	if !g.Contains(node) {
		return
	}

	incident := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if e.source == node || e.target == node {
			incident = append(incident, e)
		}
	}
	for _, e := range incident {
		g.RemoveEdge(e)
	}

	delete(g.byKey, node.data.Key())
	for i, n := range g.nodes {
		if n == node {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// EdgesBetween returns the edges from source to target. The boolean is
// false when no such edge exists; callers must distinguish "no edges"
// from "edges exist" rather than relying on an empty slice.
func (g *Graph) EdgesBetween(source, target *Node) ([]*Edge, bool) {
	var edges []*Edge
	for _, e := range g.edges {
		if e.source == source && e.target == target {
			edges = append(edges, e)
		}
	}
	return edges, len(edges) > 0
}

// EdgesFrom returns the edges whose source is node.
func (g *Graph) EdgesFrom(node *Node) ([]*Edge, bool) {
	var edges []*Edge
	for _, e := range g.edges {
		if e.source == node {
			edges = append(edges, e)
		}
	}
	return edges, len(edges) > 0
}

// EdgesTo returns the edges whose target is node.
func (g *Graph) EdgesTo(node *Node) ([]*Edge, bool) {
	var edges []*Edge
	for _, e := range g.edges {
		if e.target == node {
			edges = append(edges, e)
		}
	}
	return edges, len(edges) > 0
}

// InDegreeOf returns node's in-degree.
func (g *Graph) InDegreeOf(node *Node) int { return node.inDegree }

// OutDegreeOf returns the number of distinct outgoing neighbors of node.
func (g *Graph) OutDegreeOf(node *Node) int { return len(node.out) }

// TopologicalSort returns the nodes ordered so that for every edge u->v,
// u appears before v. The traversal is a depth-first post-order over
// outgoing neighbors starting from every node in insertion order, with
// the result reversed; sibling ties follow insertion order, keeping the
// output deterministic for a fixed build order. The result is only
// meaningful when the graph is acyclic.
func (g *Graph) TopologicalSort() []*Node {
	visited := make(map[string]bool, len(g.nodes))
	order := make([]*Node, 0, len(g.nodes))

	var visit func(n *Node)
	visit = func(n *Node) {
		if visited[n.data.Key()] {
			return
		}
		visited[n.data.Key()] = true
		for _, next := range n.out {
			visit(next)
		}
		order = append(order, n)
	}

	for _, n := range g.nodes {
		visit(n)
	}

	// Reverse the post-order so dependencies precede dependents.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// String renders the graph as one "source --> target [label]" line per
// edge, with sources in topological order.
func (g *Graph) String() string {
	var b strings.Builder
	for _, node := range g.TopologicalSort() {
		for _, neighbor := range node.out {
			edges, ok := g.EdgesBetween(node, neighbor)
			if !ok {
				continue
			}
			for _, e := range edges {
				fmt.Fprintf(&b, "   %s --> %s [%s]\n", node.data, neighbor.data, e.label)
			}
		}
	}
	return b.String()
}

func keyOf(node *Node) string {
	if node == nil {
		return "<nil>"
	}
	return node.data.Key()
}

func containsNode(nodes []*Node, target *Node) bool {
	for _, n := range nodes {
		if n == target {
			return true
		}
	}
	return false
}
