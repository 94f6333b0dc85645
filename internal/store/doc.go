// Package store persists schedule runs to SQLite.
//
// A run captures one full pipeline pass over a trace: the flattened
// per-process operation log, the extracted schedule batches, and the
// file facts observed during the parse. Runs are append-only; the store
// never mutates a recorded run.
//
// The database is opened with WAL journaling and a single connection,
// since SQLite supports only one writer at a time.
package store
