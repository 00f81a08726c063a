package link

import (
	"fmt"
	"sync/atomic"
)

// Handle identifies a frame slot inside a Pool.
type Handle int32

// NoHandle marks an empty ring slot.
const NoHandle Handle = -1

// Pool is a fixed arena of frames with a free list of indices.
//
// Acquire and Release are safe to call from different goroutines; the
// free list is a buffered channel and ownership of an index is tracked
// with a per-slot flag so that a double release is caught.
type Pool struct {
	frames []Frame
	free   chan Handle
	inUse  []atomic.Bool
}

// NewPool creates a pool of n frames, all free.
func NewPool(n int) *Pool {
	p := &Pool{
		frames: make([]Frame, n),
		free:   make(chan Handle, n),
		inUse:  make([]atomic.Bool, n),
	}
	for i := 0; i < n; i++ {
		p.free <- Handle(i)
	}
	return p
}

// Acquire takes a free frame. It never blocks and reports false when the
// pool is exhausted. The frame is zeroed.
func (p *Pool) Acquire() (Handle, bool) {
	select {
	case h := <-p.free:
		p.inUse[h].Store(true)
		p.frames[h] = Frame{}
		return h, true
	default:
		return NoHandle, false
	}
}

// Release returns h to the pool. Releasing a handle that is not held is a
// programming error and panics.
func (p *Pool) Release(h Handle) {
	if h < 0 || int(h) >= len(p.frames) {
		panic(fmt.Sprintf("link: release of invalid handle %d", h))
	}
	if !p.inUse[h].CompareAndSwap(true, false) {
		panic(fmt.Sprintf("link: double release of handle %d", h))
	}
	p.free <- h
}

// reclaim marks every frame free, including frames still held elsewhere.
// Nothing may use the pool concurrently.
func (p *Pool) reclaim() {
	for len(p.free) > 0 {
		<-p.free
	}
	for i := range p.frames {
		p.inUse[i].Store(false)
		p.frames[i] = Frame{}
		p.free <- Handle(i)
	}
}

// Frame returns the frame owned by h.
func (p *Pool) Frame(h Handle) *Frame {
	return &p.frames[h]
}

// Cap returns the number of frames in the pool.
func (p *Pool) Cap() int {
	return len(p.frames)
}

// Available returns the number of free frames.
func (p *Pool) Available() int {
	return len(p.free)
}
