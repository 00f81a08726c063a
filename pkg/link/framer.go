package link

import (
	"sync/atomic"

	"github.com/multilink-dev/multilink/pkg/hal"
)

// Framer splits outbound frames into words and reassembles inbound words
// into frames, one word per slot in each direction. It implements
// hal.SlotHandler and runs on the port's slot goroutine.
//
// The framer is the TX ring's consumer and the RX ring's producer.
type Framer struct {
	txPool, rxPool *Pool
	txRing, rxRing *Ring
	counters       *frameCounters

	txIter int
	txCur  Handle

	// txBusy is set from a data frame's first word until the next call
	// after its last, when that word has been clocked out.
	txBusy atomic.Bool

	rxIter  int
	rxCur   Handle
	rxZero  bool
	rxNone  bool
	discard Frame
}

var _ hal.SlotHandler = (*Framer)(nil)

func newFramer(txPool, rxPool *Pool, txRing, rxRing *Ring, c *frameCounters) *Framer {
	return &Framer{
		txPool:   txPool,
		rxPool:   rxPool,
		txRing:   txRing,
		rxRing:   rxRing,
		counters: c,
		txCur:    NoHandle,
		rxCur:    NoHandle,
	}
}

// NextWord returns the next outbound word. A filler frame of zero words is
// sent whenever the TX ring is empty at a frame boundary.
func (f *Framer) NextWord() uint16 {
	if f.txIter == 0 {
		// Raise txBusy before the pop so TxIdle never sees an empty ring
		// with the frame in neither place.
		f.txBusy.Store(true)
		if h, ok := f.txRing.Pop(); ok {
			f.txCur = h
		} else {
			f.txCur = NoHandle
			f.txBusy.Store(false)
		}
	}

	var w uint16
	if f.txCur != NoHandle {
		w = f.txPool.Frame(f.txCur).word(f.txIter)
	}

	f.txIter++
	if f.txIter == FrameChunks {
		if f.txCur != NoHandle {
			f.txPool.Release(f.txCur)
			f.txCur = NoHandle
			f.counters.txCount.Add(1)
			f.counters.data.Add(1)
			f.counters.windowData.Add(1)
		} else {
			f.counters.filler.Add(1)
			f.counters.windowFiller.Add(1)
		}
		f.txIter = 0
	}
	return w
}

// ReceiveWord stores one inbound word. Completed frames are pushed to the
// RX ring unless they are all zero (filler) or all NoPeer, which is what a
// master reads once the far end has left multi-player mode.
func (f *Framer) ReceiveWord(w uint16) {
	if f.rxIter == 0 {
		if h, ok := f.rxPool.Acquire(); ok {
			f.rxCur = h
		} else {
			f.rxCur = NoHandle
		}
		f.rxZero = true
		f.rxNone = true
	}

	frame := &f.discard
	if f.rxCur != NoHandle {
		frame = f.rxPool.Frame(f.rxCur)
	}
	frame.setWord(f.rxIter, w)
	if w != 0 {
		f.rxZero = false
	}
	if w != hal.NoPeer {
		f.rxNone = false
	}

	f.rxIter++
	if f.rxIter < FrameChunks {
		return
	}
	f.rxIter = 0

	switch {
	case f.rxZero || f.rxNone:
		if f.rxCur != NoHandle {
			f.rxPool.Release(f.rxCur)
		}
	case f.rxCur == NoHandle:
		f.counters.rxDropped.Add(1)
	default:
		f.rxRing.Push(f.rxCur)
		f.counters.rxCount.Add(1)
	}
	f.rxCur = NoHandle
}

// reset returns in-flight frames to their pools and rewinds both
// iterators. The framer must be detached.
func (f *Framer) reset() {
	if f.txCur != NoHandle {
		f.txPool.Release(f.txCur)
		f.txCur = NoHandle
	}
	f.txBusy.Store(false)
	if f.rxCur != NoHandle {
		f.rxPool.Release(f.rxCur)
		f.rxCur = NoHandle
	}
	f.txIter = 0
	f.rxIter = 0
	f.rxZero = false
	f.rxNone = false
	f.discard = Frame{}
}
