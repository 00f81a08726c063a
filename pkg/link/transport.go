package link

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/multilink-dev/multilink/pkg/hal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Message is a received frame on loan from the transport. Data is valid
// until the message is passed to PollConsume.
type Message struct {
	Data []byte

	handle Handle
	gen    uint64
}

// Transport is a link endpoint. Every method except Counters must be
// called from the application goroutine; the port calls the framer from
// its own slot goroutine.
type Transport struct {
	mu   sync.Mutex
	port hal.Port
	opts options

	txPool, rxPool *Pool
	txRing, rxRing *Ring
	framer         *Framer
	counters       frameCounters

	state State
	neg   Negotiation
	peer  string
	err   error

	// gen invalidates messages still on loan when the link is torn down.
	gen uint64

	span trace.Span

	sessions            atomic.Uint64
	negotiationFailures atomic.Uint64
	faults              atomic.Uint64
}

// New creates a disconnected transport on port.
func New(port hal.Port, opts ...Option) *Transport {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.resolve()

	t := &Transport{
		port:   port,
		opts:   o,
		txPool: NewPool(TxPoolSize),
		rxPool: NewPool(RxPoolSize),
	}
	t.txRing = NewRing(TxRingSize, t.txPool)
	t.rxRing = NewRing(RxRingSize, t.rxPool)
	t.framer = newFramer(t.txPool, t.rxPool, t.txRing, t.rxRing, &t.counters)
	return t
}

// Connect starts negotiating with the given peer. The call returns at once;
// drive the negotiation with Update and poll IsConnected.
func (t *Transport) Connect(peer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start(peer)
}

// Listen starts negotiating as the accepting side.
func (t *Transport) Listen() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start("")
}

func (t *Transport) start(peer string) {
	if t.state != StateDisconnected {
		t.teardown(nil)
	}

	t.counters.reset()
	t.txRing.loss.Store(0)
	t.rxRing.loss.Store(0)
	t.err = nil
	t.peer = peer
	t.neg = Negotiation{}

	_, t.span = t.opts.tracer.Start(context.Background(), "link.negotiate",
		trace.WithAttributes(attribute.String("link.peer", peer)))

	if err := t.port.Open(peer); err != nil {
		t.fail(fmt.Errorf("%w: %v", ErrPortOpen, err))
		return
	}
	t.state = StateNegotiating
	t.opts.logger.Info("negotiating", "peer", peer)
}

// Update advances negotiation by delta and checks the port's error bit and
// mode signal. It does nothing while disconnected.
func (t *Transport) Update(delta time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.checkFault() || t.state != StateNegotiating {
		return
	}

	obs := Observation{
		Delta:      delta,
		ModesValid: t.port.ModesValid(),
		IsMaster:   t.port.IsMaster(),
	}
	if t.neg.Phase == PhaseHandshake {
		if h, ok := t.rxRing.Pop(); ok {
			f := *t.rxPool.Frame(h)
			t.rxPool.Release(h)
			obs.Received = f[:]
		}
	}

	next, action, err := t.neg.Step(obs, Limits{
		Timeout:    t.opts.timeout,
		RetryDelay: t.opts.retryDelay,
		Handshake:  t.opts.handshake,
	})
	t.neg = next
	t.apply(action, err)
}

func (t *Transport) apply(action Action, err error) {
	log := t.opts.logger

	switch action {
	case ActionStartHandshake:
		h, ok := t.txPool.Acquire()
		if !ok {
			t.fail(ErrPoolExhausted)
			return
		}
		copy(t.txPool.Frame(h)[:], t.opts.handshake)
		t.txRing.Push(h)
		t.port.Attach(t.framer)
		t.span.AddEvent("handshake", trace.WithAttributes(
			attribute.String("link.role", t.neg.Role.String()),
			attribute.Int("link.attempt", t.neg.Attempt),
		))
		log.Debug("handshake started", "role", t.neg.Role, "attempt", t.neg.Attempt)

	case ActionRetry:
		t.port.Detach()
		t.port.Close()
		t.resetQueues()
		t.span.AddEvent("retry")
		log.Debug("handshake mismatch, retrying", "attempt", t.neg.Attempt, "elapsed", t.neg.Elapsed)

	case ActionReopen:
		if err := t.port.Open(t.peer); err != nil {
			t.fail(fmt.Errorf("%w: %v", ErrPortOpen, err))
		}

	case ActionRestart:
		t.port.Detach()
		t.resetQueues()
		log.Debug("mode signal lost during handshake")

	case ActionConnect:
		// Session counters start after the handshake frames.
		t.counters.reset()
		t.txRing.loss.Store(0)
		t.rxRing.loss.Store(0)
		t.state = StateConnected
		t.sessions.Add(1)
		t.span.SetAttributes(
			attribute.String("link.role", t.neg.Role.String()),
			attribute.Int("link.attempts", t.neg.Attempt),
		)
		t.span.SetStatus(codes.Ok, "")
		t.span.End()
		t.span = nil
		log.Info("connected", "role", t.neg.Role, "attempts", t.neg.Attempt, "elapsed", t.neg.Elapsed)

	case ActionFail:
		t.fail(err)
	}
}

// fail tears the link down after a negotiation failure.
func (t *Transport) fail(err error) {
	t.negotiationFailures.Add(1)
	t.opts.logger.Warn("negotiation failed", "error", err, "elapsed", t.neg.Elapsed)
	t.teardown(err)
}

// checkFault disconnects when the port reports a transmission error, or
// when a connected peer has left multi-player mode. Frames already in the
// RX ring stay readable until drained, so a Disconnect notice sent just
// before the peer closed its port is still delivered.
func (t *Transport) checkFault() bool {
	if t.state == StateDisconnected {
		return false
	}
	// Read the mode before the error bit: a port that drops the peer
	// abnormally raises the bit first.
	modes := t.port.ModesValid()
	if t.port.ErrorBit() {
		t.faults.Add(1)
		t.opts.logger.Warn("transmission error, disconnecting", "role", t.neg.Role)
		t.teardown(ErrLinkFault)
		return true
	}
	if t.state != StateConnected || modes || t.rxRing.Len() > 0 {
		return false
	}
	t.faults.Add(1)
	t.opts.logger.Warn("peer left multi-player mode, disconnecting", "role", t.neg.Role)
	t.teardown(ErrPeerLost)
	return true
}

// IsConnected reports whether the handshake has completed.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkFault()
	return t.state == StateConnected
}

// IsHost reports whether this end holds the host role.
func (t *Transport) IsHost() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state != StateDisconnected && t.neg.Role == RoleHost
}

// SendMessage queues payload for transmission. It reports false when the
// link is down or the TX pool is exhausted; an eviction from a full ring
// still reports true. A payload longer than MaxMessageSize panics.
func (t *Transport) SendMessage(payload []byte) bool {
	if len(payload) > MaxMessageSize {
		panic(fmt.Sprintf("link: payload of %d bytes exceeds frame size %d", len(payload), MaxMessageSize))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.checkFault() || t.state != StateConnected {
		return false
	}

	h, ok := t.txPool.Acquire()
	if !ok {
		t.counters.txDropped.Add(1)
		return false
	}
	copy(t.txPool.Frame(h)[:], payload)
	t.txRing.Push(h)
	return true
}

// PollMessage returns the next received frame without copying it. The
// caller must hand it back with PollConsume.
func (t *Transport) PollMessage() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.checkFault() || t.state != StateConnected {
		return Message{}, false
	}
	h, ok := t.rxRing.Pop()
	if !ok {
		return Message{}, false
	}
	return Message{Data: t.rxPool.Frame(h)[:], handle: h, gen: t.gen}, true
}

// PollConsume returns a message's frame to the pool. Messages received
// before the last disconnect are ignored, since teardown already reclaimed
// them. Consuming the same message twice panics.
func (t *Transport) PollConsume(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m.gen != t.gen || m.Data == nil {
		return
	}
	t.rxPool.Release(m.handle)
}

// TxPending returns the number of frames waiting in the TX ring.
func (t *Transport) TxPending() int {
	return t.txRing.Len()
}

// TxIdle reports whether every queued frame has been fully transmitted.
func (t *Transport) TxIdle() bool {
	return t.txRing.Len() == 0 && !t.framer.txBusy.Load()
}

// Disconnect tears the link down. It is safe to call in any state.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateDisconnected {
		return
	}
	t.opts.logger.Info("disconnecting", "role", t.neg.Role)
	t.teardown(nil)
}

// Close disconnects. It implements io.Closer.
func (t *Transport) Close() error {
	t.Disconnect()
	return nil
}

// teardown closes the port and returns every frame to its pool. Closing
// the port guarantees the framer is no longer running.
func (t *Transport) teardown(err error) {
	if t.span != nil {
		if err != nil {
			t.span.RecordError(err)
			t.span.SetStatus(codes.Error, err.Error())
		} else {
			t.span.SetStatus(codes.Error, "cancelled")
		}
		t.span.End()
		t.span = nil
	}

	t.port.Detach()
	t.port.Close()
	t.resetQueues()

	t.state = StateDisconnected
	t.neg = Negotiation{}
	t.peer = ""
	t.gen++
	if err != nil {
		t.err = err
	}
}

func (t *Transport) resetQueues() {
	t.framer.reset()
	t.txRing.Drain()
	t.rxRing.Drain()
	t.txPool.reclaim()
	t.rxPool.reclaim()
}

// State returns the connection state.
func (t *Transport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ConnectionState{
		State:   t.state,
		Role:    t.neg.Role,
		Phase:   t.neg.Phase,
		Attempt: t.neg.Attempt,
		Elapsed: t.neg.Elapsed,
	}
}

// Err returns the reason for the most recent failure, or nil. It is
// cleared by Connect and Listen.
func (t *Transport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Stats returns a snapshot and starts a new saturation window.
func (t *Transport) Stats() Stats {
	data := t.counters.windowData.Swap(0)
	filler := t.counters.windowFiller.Swap(0)
	return Stats{
		TxCount:           t.counters.txCount.Load(),
		RxCount:           t.counters.rxCount.Load(),
		TxLoss:            t.counters.txDropped.Load() + t.txRing.Loss(),
		RxLoss:            t.counters.rxDropped.Load() + t.rxRing.Loss(),
		SaturationPercent: saturation(data, filler),
	}
}

// Counters returns cumulative totals. It is safe to call from any
// goroutine and does not disturb the saturation window.
func (t *Transport) Counters() Counters {
	return Counters{
		TxCount:             t.counters.txCount.Load(),
		RxCount:             t.counters.rxCount.Load(),
		TxLoss:              t.counters.txDropped.Load() + t.txRing.Loss(),
		RxLoss:              t.counters.rxDropped.Load() + t.rxRing.Loss(),
		FillerFrames:        t.counters.filler.Load(),
		DataFrames:          t.counters.data.Load(),
		Sessions:            t.sessions.Load(),
		NegotiationFailures: t.negotiationFailures.Load(),
		Faults:              t.faults.Load(),
	}
}
