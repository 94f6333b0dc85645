// Package parser turns a raw strace log into per-process operation logs.
//
// The input is one syscall record per line, possibly interleaved across
// processes, with strace's "unfinished"/"resumed" convention for calls
// split by a context switch. The parser is a strict one-pass scan:
//
//  1. Lines reporting failed calls (= -1), close/readlink calls, and
//     signal markers (---/+++) are dropped before classification.
//  2. Each surviving line is classified as unfinished, resumed, or
//     normal. Unfinished lines are parked keyed by (pid, syscall) until
//     the matching resumed line supplies the argument remainder and the
//     return value.
//  3. A finished call is dispatched by its syscall name to an extraction
//     rule that emits zero or more Operations for the owning process.
//
// The parser simulates a file-descriptor table (path, offset, size per
// fd) so that fd-addressed calls (read, write, fstat, dirfd-relative
// paths) can be resolved back to absolute file identity. It also gathers
// FileFacts from stat-family lines as a side product.
//
// Any unrecovered error aborts the whole parse: downstream dependency
// inference assumes a complete, consistent per-process operation
// sequence, so there is no best-effort partial output.
package parser
