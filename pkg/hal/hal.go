// Package hal defines the boundary between the link transport and the
// physical serial channel.
//
// A Port models a two-party multi-player serial link: once opened, both ends
// exchange one 16-bit word per slot on a fixed cadence whether or not the
// application has data. The master end owns the slot clock. Slot work is
// delivered to a SlotHandler from the port's own goroutine, which plays the
// role of the interrupt context.
package hal

// Well-known register values.
const (
	// Heartbeat is loaded into the send register while no handler is
	// attached, so a master polling an idle slave sees a recognisable
	// non-zero pattern.
	Heartbeat uint16 = 0x5555

	// NoPeer is the word a master reads when the far end is not in
	// multi-player mode.
	NoPeer uint16 = 0xFFFF
)

// SlotHandler is invoked once per slot while attached.
//
// NextWord is called to load the send register before a transfer and
// ReceiveWord delivers the word the peer sent in the same transfer. Both are
// called from the port's slot goroutine and must not block.
type SlotHandler interface {
	NextWord() uint16
	ReceiveWord(w uint16)
}

// Port is a multi-player serial port.
type Port interface {
	// Open puts the port into multi-player mode. The peer argument is
	// transport specific (a unit name, a URL) and may be empty for the
	// accepting side.
	Open(peer string) error

	// Close leaves multi-player mode. When Close returns the attached
	// handler, if any, will not be invoked again.
	Close() error

	// Attach starts delivering slots to h. NextWord is called once to
	// prime the send register. On the slave end, a handler attached while
	// the master is mid-burst is held until the master attaches again, and
	// the end keeps sending Heartbeat meanwhile.
	Attach(h SlotHandler)

	// Detach stops delivering slots. When Detach returns the handler will
	// not be invoked again.
	Detach()

	// ModesValid reports whether every party on the link is in
	// multi-player mode.
	ModesValid() bool

	// IsMaster reports whether this end drives the slot clock.
	IsMaster() bool

	// ErrorBit reports a transmission error observed since Open.
	ErrorBit() bool
}
