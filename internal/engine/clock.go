package engine

import "sync/atomic"

// Clock is a monotonic logical clock.
//
// Every processed event is stamped with a strictly increasing tick from this
// clock, so traces order identically on every run.
//
// Clock is safe for concurrent use, though only the loop goroutine calls
// Next in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume after the last upstream sequence a replica has seen.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Advance moves the clock forward to at least seq. It never moves backwards.
func (c *Clock) Advance(seq int64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}
