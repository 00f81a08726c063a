package protocol

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/multilink-dev/multilink/pkg/link"
)

// Transport is the part of link.Transport the dispatcher needs.
type Transport interface {
	SendMessage(payload []byte) bool
	PollMessage() (link.Message, bool)
	PollConsume(m link.Message)
}

// Dispatcher sends events over a transport and routes received frames to a
// Handler.
type Dispatcher struct {
	tr     Transport
	enc    Encoder
	logger *slog.Logger

	sent      atomic.Uint64
	received  atomic.Uint64
	unknown   atomic.Uint64
	malformed atomic.Uint64
}

// NewDispatcher creates a dispatcher on tr.
func NewDispatcher(tr Transport) *Dispatcher {
	return &Dispatcher{
		tr:     tr,
		logger: slog.Default().With("component", "protocol"),
	}
}

// SetLogger replaces the dispatcher's logger.
func (d *Dispatcher) SetLogger(l *slog.Logger) {
	d.logger = l
}

// Send encodes ev and queues it. It reports false when the transport
// refused the frame; the loss is already counted there.
func (d *Dispatcher) Send(ev Event) bool {
	EncodeTo(&d.enc, ev)
	if !d.tr.SendMessage(d.enc.Bytes()) {
		return false
	}
	d.sent.Add(1)
	return true
}

// PollAndDispatch drains every received frame and passes each decoded
// event to h. Frames with an unknown type are skipped. It returns the
// number of events delivered.
func (d *Dispatcher) PollAndDispatch(h Handler) int {
	n := 0
	for {
		msg, ok := d.tr.PollMessage()
		if !ok {
			return n
		}
		ev, err := Decode(msg.Data)
		d.tr.PollConsume(msg)

		if err != nil {
			if errors.Is(err, ErrUnknownType) {
				d.unknown.Add(1)
			} else {
				d.malformed.Add(1)
			}
			d.logger.Debug("dropping frame", "error", err)
			continue
		}

		d.received.Add(1)
		h.HandleEvent(ev)
		n++
	}
}

// DispatchStats counts dispatcher activity.
type DispatchStats struct {
	Sent      uint64
	Received  uint64
	Unknown   uint64
	Malformed uint64
}

// Stats returns cumulative dispatcher counts.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Sent:      d.sent.Load(),
		Received:  d.received.Load(),
		Unknown:   d.unknown.Load(),
		Malformed: d.malformed.Load(),
	}
}
