package rga

import "sync/atomic"

// Clock is the per-replica Lamport logical clock that mints element
// identifiers.
//
// It holds two independently monotonic values: the Lamport counter,
// which is advanced past every counter the replica ever observes, and a
// per-replica sequence number that never merges with remote state. Two
// concurrent Tick calls may race on the counter, but the sequence keeps
// the resulting identifiers distinct, so the clock needs no lock.
type Clock struct {
	replica  uint64
	counter  atomic.Uint64
	sequence atomic.Uint64
}

func newClock(replica uint64) *Clock {
	return &Clock{replica: replica}
}

// Tick mints a fresh identifier for a local operation. Identifiers from
// successive calls are strictly increasing, and calls from concurrent
// goroutines never collide.
func (c *Clock) Tick() ID {
	seq := c.sequence.Add(1)
	cnt := c.counter.Add(1)
	return ID{Counter: cnt, Replica: c.replica, Sequence: seq}
}

// Observe absorbs a remote timestamp: the counter advances to one past
// the maximum of its current value and the observed counter, so every
// identifier minted afterwards dominates t.
func (c *Clock) Observe(t ID) {
	c.sequence.Add(1)
	for {
		cur := c.counter.Load()
		next := max(cur, t.Counter) + 1
		if c.counter.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Counter returns the current Lamport counter value.
func (c *Clock) Counter() uint64 { return c.counter.Load() }
