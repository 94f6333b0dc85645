// Package engine turns per-process operation logs into a parallel
// execution schedule.
//
// The engine runs three sequential passes over in-memory structures:
//
// 1. Build:
// Every process becomes a node; every file-targeting operation becomes
// a labeled edge from its process to its file's node. Parallel edges on
// the same (process, file) pair are kept distinct, labeled by the
// operation cell itself.
//
// 2. Mark:
// For every file touched by more than one edge, a fixed precedence
// policy decides which operations must wait on which: creation calls
// precede every other access, writes precede reads and destructive
// calls, reads precede destructive calls, and stat-family calls never
// constrain anything. Operations from the same process are never linked
// because a process's own log is already totally ordered.
//
// 3. Order and drain:
// Order collapses the marked graph down to processes only. Per
// (process, file) pair all edges summarize to a single Write or Read
// label; Write edges point process to file, Read edges are flipped so a
// reader depends on the file's producer; file nodes are then collapsed
// into direct writer-to-reader edges. AvailableSet drains the result
// one in-degree-zero layer at a time, sorted by pid, giving the caller
// batches that are safe to run in parallel.
//
// CRITICAL PATTERNS:
//
// Deterministic Scheduling:
// Nodes are visited in insertion order, batches are sorted ascending by
// pid, and operation cells carry monotonic seq stamps from the parse.
// The same trace always yields the same schedule.
//
// All passes are single-threaded. MarkDependencies must complete before
// any consumer reads a cell's readiness; pre-list membership, not
// insertion order, determines when a cell can execute.
package engine
