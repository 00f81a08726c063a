// Package cable provides an in-memory, two-ended serial link.
//
// A Cable is deterministic: nothing moves until Tick is called, which
// performs exactly one slot transfer. Run drives Tick from a ticker for
// interactive use. End 0 is the master plug and owns the slot clock.
package cable

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/multilink-dev/multilink/pkg/hal"
)

// Cable connects two Ends.
type Cable struct {
	// mu serializes slot transfers with every register change, so a
	// handler is never running once Detach or Close has returned.
	mu        sync.Mutex
	ends      [2]End
	transfers uint64
	logger    *slog.Logger

	// burst is set once the master has transferred since its last Attach.
	burst bool
}

// End is one plug of a Cable. It implements hal.Port.
type End struct {
	cable   *Cable
	index   int
	open    bool
	errBit  bool
	send    uint16
	handler hal.SlotHandler

	// pending holds a slave handler attached mid-burst. It goes live at
	// the master's next Attach.
	pending hal.SlotHandler
}

var _ hal.Port = (*End)(nil)

// New creates an unplugged-state cable with both ends closed.
func New() *Cable {
	c := &Cable{
		logger: slog.Default().With("component", "cable"),
	}
	for i := range c.ends {
		c.ends[i] = End{cable: c, index: i}
	}
	return c
}

// SetLogger replaces the cable's logger.
func (c *Cable) SetLogger(l *slog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
}

// Master returns the master end.
func (c *Cable) Master() *End { return &c.ends[0] }

// Slave returns the slave end.
func (c *Cable) Slave() *End { return &c.ends[1] }

// Transfers returns the number of completed slot transfers.
func (c *Cable) Transfers() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transfers
}

// Tick performs one slot transfer. It reports false when the master is not
// driving the clock (closed, faulted or no handler attached).
func (c *Cable) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, s := &c.ends[0], &c.ends[1]
	if !m.open || m.errBit || m.handler == nil {
		return false
	}

	slaveLive := s.open && !s.errBit
	fromMaster := m.send
	fromSlave := hal.NoPeer
	if slaveLive {
		fromSlave = s.send
	}

	m.handler.ReceiveWord(fromSlave)
	if slaveLive && s.handler != nil {
		s.handler.ReceiveWord(fromMaster)
	}

	m.send = m.handler.NextWord()
	if slaveLive && s.handler != nil {
		s.send = s.handler.NextWord()
	}

	c.transfers++
	c.burst = true
	return true
}

// TickN performs n slot transfers and returns how many completed.
func (c *Cable) TickN(n int) int {
	done := 0
	for i := 0; i < n; i++ {
		if c.Tick() {
			done++
		}
	}
	return done
}

// Run calls Tick every period until ctx is done.
func (c *Cable) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Tick()
		case <-ctx.Done():
			return
		}
	}
}

// InjectError raises the error bit on every open end, as a pulled plug
// would. Transfers stop until the ends are reopened.
func (c *Cable) InjectError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.ends {
		if c.ends[i].open {
			c.ends[i].errBit = true
		}
	}
	c.logger.Warn("transmission error injected")
}

func (e *End) peer() *End {
	return &e.cable.ends[1-e.index]
}

// Open implements hal.Port. The peer argument is ignored.
func (e *End) Open(string) error {
	e.cable.mu.Lock()
	defer e.cable.mu.Unlock()
	e.open = true
	e.errBit = false
	e.handler = nil
	e.pending = nil
	e.send = hal.Heartbeat
	e.cable.logger.Debug("end opened", "master", e.index == 0)
	return nil
}

// Close implements hal.Port.
func (e *End) Close() error {
	e.cable.mu.Lock()
	defer e.cable.mu.Unlock()
	e.open = false
	e.errBit = false
	e.handler = nil
	e.pending = nil
	e.send = 0
	return nil
}

// Attach implements hal.Port. A slave handler attached while the master is
// mid-burst starts receiving slots at the master's next Attach, so both
// framers begin on the same word.
func (e *End) Attach(h hal.SlotHandler) {
	c := e.cable
	c.mu.Lock()
	defer c.mu.Unlock()
	if !e.open {
		return
	}

	if e.index == 0 {
		e.handler = h
		e.send = h.NextWord()
		c.burst = false
		if s := &c.ends[1]; s.pending != nil {
			s.handler = s.pending
			s.pending = nil
			s.send = s.handler.NextWord()
		}
		return
	}

	if c.ends[0].handler != nil && c.burst {
		e.pending = h
		return
	}
	e.handler = h
	e.send = h.NextWord()
}

// Detach implements hal.Port.
func (e *End) Detach() {
	e.cable.mu.Lock()
	defer e.cable.mu.Unlock()
	e.handler = nil
	e.pending = nil
	if e.open {
		e.send = hal.Heartbeat
	}
}

// ModesValid implements hal.Port.
func (e *End) ModesValid() bool {
	e.cable.mu.Lock()
	defer e.cable.mu.Unlock()
	return e.open && e.peer().open
}

// IsMaster implements hal.Port.
func (e *End) IsMaster() bool {
	return e.index == 0
}

// ErrorBit implements hal.Port.
func (e *End) ErrorBit() bool {
	e.cable.mu.Lock()
	defer e.cable.mu.Unlock()
	return e.errBit
}
