// Package dag implements a directed acyclic graph with labeled edges.
//
// The graph supports multiple edges between the same pair of nodes as long
// as their labels differ. Node identity is determined by the payload's Key,
// not by pointer: adding a payload whose key is already present returns the
// existing node, so callers can intern nodes freely while building.
//
// DESIGN:
//
// Identity-Based Deduplication:
// Nodes are unique by NodeData.Key, edges by the (source, target, label)
// key triple. AddNode and AddEdge are idempotent.
//
// Degree Bookkeeping:
// Every node tracks its incoming neighbors (by key, non-owning) and an
// in-degree counter. The two are updated only by addEdge/RemoveEdge, so
// in-degree always equals the number of incoming entries.
//
// Cascading Removal:
// RemoveNode first removes every edge incident to the node, then the node
// itself. No edge ever references a removed node.
//
// Determinism:
// Nodes and edges preserve insertion order. TopologicalSort visits nodes in
// insertion order and resolves ties the same way, so output is stable for a
// fixed input order. No randomness, no map iteration order dependence.
//
// Acyclicity is a caller contract. TopologicalSort terminates on any input
// (visited-set guarded), but its output is only meaningful for a DAG; use
// Validate to check before sorting when the input is not known to be acyclic.
package dag
