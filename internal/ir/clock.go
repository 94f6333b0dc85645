package ir

import "sync/atomic"

// Clock is a monotonic logical clock for stamping operations.
//
// Every operation emitted by a parse session carries a strictly increasing
// seq number from this clock. This ensures:
// - Deterministic ordering (no wall-clock race conditions)
// - Stable rendering and storage order for a fixed input
// - Unique identity for shared operation cells
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although the parser is single-threaded during a parse pass.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
// Each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
