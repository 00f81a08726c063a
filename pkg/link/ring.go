package link

import "sync/atomic"

// Ring is a fixed-capacity queue of pool handles with one producer and one
// consumer.
//
// Every slot is exchanged atomically, so a handle sitting in the ring is
// owned by exactly one side at any instant: either the consumer takes it
// with a compare-and-swap, or the producer evicts it with a swap. writePos
// is touched only by the producer and readPos only by the consumer.
//
// An eviction can leave the oldest surviving entries behind the read
// cursor, so after an overflow pop order may wrap. Without overflow the
// ring is FIFO.
type Ring struct {
	pool     *Pool
	slots    []atomic.Int32
	writePos int
	readPos  int
	loss     atomic.Uint64
}

// NewRing creates a ring of n slots whose evicted handles go back to pool.
func NewRing(n int, pool *Pool) *Ring {
	r := &Ring{
		pool:  pool,
		slots: make([]atomic.Int32, n),
	}
	for i := range r.slots {
		r.slots[i].Store(int32(NoHandle))
	}
	return r
}

// Push stores h at the write cursor. If the slot was still occupied the
// old handle is released to the pool, the loss counter is incremented and
// Push reports false. The new handle is stored either way.
func (r *Ring) Push(h Handle) bool {
	old := Handle(r.slots[r.writePos].Swap(int32(h)))
	r.writePos = (r.writePos + 1) % len(r.slots)
	if old != NoHandle {
		r.pool.Release(old)
		r.loss.Add(1)
		return false
	}
	return true
}

// Pop removes the next pending handle, scanning forward from the read
// cursor past vacated slots.
func (r *Ring) Pop() (Handle, bool) {
	n := len(r.slots)
	for i := 0; i < n; i++ {
		idx := (r.readPos + i) % n
		for {
			h := r.slots[idx].Load()
			if Handle(h) == NoHandle {
				break
			}
			if r.slots[idx].CompareAndSwap(h, int32(NoHandle)) {
				r.readPos = (idx + 1) % n
				return Handle(h), true
			}
		}
	}
	return NoHandle, false
}

// Len returns the number of occupied slots.
func (r *Ring) Len() int {
	live := 0
	for i := range r.slots {
		if Handle(r.slots[i].Load()) != NoHandle {
			live++
		}
	}
	return live
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.slots)
}

// Loss returns the number of evicted entries.
func (r *Ring) Loss() uint64 {
	return r.loss.Load()
}

// Drain releases every queued handle and rewinds both cursors. It must only
// be called while neither side is running.
func (r *Ring) Drain() {
	for i := range r.slots {
		if h := Handle(r.slots[i].Swap(int32(NoHandle))); h != NoHandle {
			r.pool.Release(h)
		}
	}
	r.writePos = 0
	r.readPos = 0
}

// reset drains the ring and clears the loss counter.
func (r *Ring) reset() {
	r.Drain()
	r.loss.Store(0)
}
