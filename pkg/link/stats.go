package link

import "sync/atomic"

// Stats is a snapshot of link activity.
type Stats struct {
	TxCount uint64
	RxCount uint64
	TxLoss  uint64
	RxLoss  uint64

	// SaturationPercent is the share of transmitted frames since the
	// previous snapshot that carried data rather than filler.
	SaturationPercent int
}

// Counters are cumulative totals that are never reset by reading them.
type Counters struct {
	TxCount      uint64
	RxCount      uint64
	TxLoss       uint64
	RxLoss       uint64
	FillerFrames uint64
	DataFrames   uint64

	Sessions            uint64
	NegotiationFailures uint64
	Faults              uint64
}

// frameCounters is shared between the framer and the application side.
type frameCounters struct {
	txCount atomic.Uint64
	rxCount atomic.Uint64

	// Pool exhaustion. Ring evictions are tracked by the rings.
	txDropped atomic.Uint64
	rxDropped atomic.Uint64

	filler atomic.Uint64
	data   atomic.Uint64

	// Saturation window, swapped to zero by Stats.
	windowFiller atomic.Uint64
	windowData   atomic.Uint64
}

func (c *frameCounters) reset() {
	c.txCount.Store(0)
	c.rxCount.Store(0)
	c.txDropped.Store(0)
	c.rxDropped.Store(0)
	c.filler.Store(0)
	c.data.Store(0)
	c.windowFiller.Store(0)
	c.windowData.Store(0)
}

// saturation returns data/(data+filler) as a percentage, or 0 when
// nothing was transmitted.
func saturation(data, filler uint64) int {
	total := data + filler
	if total == 0 {
		return 0
	}
	return int(data * 100 / total)
}
