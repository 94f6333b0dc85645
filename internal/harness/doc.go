// Package harness provides conformance testing for the scheduling
// pipeline.
//
// A scenario is a YAML file carrying raw trace lines and the expected
// pipeline output: schedule batches, cross-process precondition links,
// and stat-derived file facts. The harness feeds the lines through the
// full parse/mark/order/drain path and checks every expectation.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	trace:
//	  - '1 openat(AT_FDCWD, "/tmp/out", O_WRONLY|O_CREAT, 0644) = 3'
//	  - '1 write(3, "data", 4) = 4'
//	  - '2 openat(AT_FDCWD, "/tmp/out", O_RDONLY) = 3'
//	  - '2 read(3, "data", 4) = 4'
//	expect:
//	  batches:
//	    - [1]
//	    - [2]
//	  preconditions:
//	    - pid: 2
//	      op: Read
//	      requires:
//	        - { pid: 1, op: Write }
//	  facts:
//	    - { path: /tmp/out, size: 4, kind: file }
//
// Preconditions are a subset match: the named operation's pre-list must
// contain at least the listed entries. Facts are matched exactly
// against what the parse observed.
//
// Golden snapshots of the full pipeline output live in testdata/golden
// and are compared through goldie; regenerate with go test -update.
package harness
