// Package ir defines the operation model shared by the parser and the
// scheduling engine.
//
// The central types are:
//
//   - Operation: a value describing one file-system level action recovered
//     from a trace line (read, write, mkdir, ...). Operations are plain
//     values; they never change after the parser emits them.
//
//   - Cell: a shared, mutable wrapper around one Operation. The same Cell is
//     referenced from the owning process's operation log and from dependency
//     graph edges, because dependency marking must mutate the pre-list of an
//     operation through whichever reference discovered the constraint. All
//     Cell mutation is mutex-guarded.
//
//   - File: an interned path. One Interner is used per parse session, so two
//     operations on the same path always reference the same *File and path
//     identity is pointer identity. Paths are NFC-normalized at the intern
//     boundary.
//
//   - Process: a pid plus the ordered log of Cells it performed.
//
// Sequence numbers come from Clock, a monotonic logical counter. Ordering
// decisions never use wall-clock time.
package ir
