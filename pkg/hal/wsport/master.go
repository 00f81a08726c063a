package wsport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/multilink-dev/multilink/pkg/hal"
)

// Master is the clock-owning end. It is an http.Handler that accepts the
// slave's WebSocket, and a hal.Port for the local transport. Call Run to
// start the slot clock.
type Master struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu       sync.Mutex
	open     bool
	errBit   bool
	handler  hal.SlotHandler
	send     uint16
	needSync bool
	conn     *websocket.Conn

	// epoch changes whenever the handler or mode changes, so an exchange
	// started before the change is discarded.
	epoch uint64

	replies chan uint16

	// wmu serialises writes to conn.
	wmu sync.Mutex
}

var _ hal.Port = (*Master)(nil)

// NewMaster creates a closed master end.
func NewMaster() *Master {
	return &Master{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64,
			WriteBufferSize: 64,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  slog.Default().With("component", "wsport", "end", "master"),
		replies: make(chan uint16, 1),
	}
}

// SetLogger replaces the master's logger.
func (m *Master) SetLogger(l *slog.Logger) {
	m.logger = l
}

// ServeHTTP accepts the slave's connection and reads its replies until it
// disconnects. A second concurrent peer gets 409 Conflict.
func (m *Master) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	busy := m.conn != nil
	m.mu.Unlock()
	if busy {
		http.Error(w, ErrBusy.Error(), http.StatusConflict)
		return
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	// Hold wmu so no slot reaches the slave before it learns the state.
	m.wmu.Lock()
	m.mu.Lock()
	if m.conn != nil {
		m.mu.Unlock()
		m.wmu.Unlock()
		closeConn(conn)
		return
	}
	m.conn = conn
	open, attached := m.open, m.handler != nil
	m.drainReplies()
	m.mu.Unlock()

	err = m.writeLocked(conn, modeMessage(open))
	if err == nil && !attached {
		err = m.writeLocked(conn, []byte{kindIdle})
	}
	m.wmu.Unlock()

	m.logger.Info("peer connected", "remote", r.RemoteAddr)
	if err != nil {
		m.fault(conn, err)
	}
	m.readLoop(conn)
}

func (m *Master) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.dropConn(conn, err)
			return
		}
		if w, ok := parseWord(data); ok {
			select {
			case m.replies <- w:
			default:
			}
		}
	}
}

// dropConn forgets conn after a read error. A graceful close means the
// slave left multi-player mode; anything else raises the error bit.
func (m *Master) dropConn(conn *websocket.Conn, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != conn {
		return
	}
	m.conn = nil
	if isGracefulClose(err) {
		m.logger.Info("peer disconnected")
		return
	}
	if m.open {
		m.errBit = true
	}
	m.logger.Warn("peer connection lost", "error", err)
}

// fault raises the error bit after a failed exchange on conn.
func (m *Master) fault(conn *websocket.Conn, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == conn && m.open {
		m.errBit = true
	}
	m.logger.Warn("slot exchange failed", "error", err)
}

func (m *Master) write(conn *websocket.Conn, b []byte) error {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	return m.writeLocked(conn, b)
}

func (m *Master) writeLocked(conn *websocket.Conn, b []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, b)
}

// notify sends b to the slave, if connected. Must not hold mu.
func (m *Master) notify(b []byte) {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}
	if err := m.write(conn, b); err != nil {
		m.fault(conn, err)
	}
}

// drainReplies discards a reply left over from an abandoned exchange.
func (m *Master) drainReplies() {
	select {
	case <-m.replies:
	default:
	}
}

// Run drives the slot clock until ctx is done.
func (m *Master) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// tick performs one slot transfer.
func (m *Master) tick(ctx context.Context) {
	m.mu.Lock()
	if !m.open || m.errBit || m.handler == nil {
		m.mu.Unlock()
		return
	}
	h, word, conn, epoch := m.handler, m.send, m.conn, m.epoch
	startBurst := m.needSync
	m.needSync = false
	m.mu.Unlock()

	reply := hal.NoPeer
	if conn != nil {
		if startBurst {
			if err := m.write(conn, []byte{kindSync}); err != nil {
				m.fault(conn, err)
				return
			}
		}
		if err := m.write(conn, wordMessage(word)); err != nil {
			m.fault(conn, err)
			return
		}
		select {
		case reply = <-m.replies:
		case <-time.After(replyTimeout):
			m.fault(conn, errReplyTimeout)
			return
		case <-ctx.Done():
			return
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return
	}
	h.ReceiveWord(reply)
	m.send = h.NextWord()
}

// Open implements hal.Port. The peer argument is ignored.
func (m *Master) Open(string) error {
	m.mu.Lock()
	m.open = true
	m.errBit = false
	m.handler = nil
	m.send = hal.Heartbeat
	m.epoch++
	m.drainReplies()
	m.mu.Unlock()

	m.notify(modeMessage(true))
	return nil
}

// Close implements hal.Port. The slave stays connected and sees the mode
// drop.
func (m *Master) Close() error {
	m.mu.Lock()
	m.open = false
	m.errBit = false
	m.handler = nil
	m.send = 0
	m.epoch++
	m.mu.Unlock()

	m.notify(modeMessage(false))
	return nil
}

// Attach implements hal.Port.
func (m *Master) Attach(h hal.SlotHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return
	}
	m.handler = h
	m.send = h.NextWord()
	m.needSync = true
	m.epoch++
}

// Detach implements hal.Port.
func (m *Master) Detach() {
	m.mu.Lock()
	attached := m.handler != nil
	m.handler = nil
	m.needSync = false
	if m.open {
		m.send = hal.Heartbeat
	}
	m.epoch++
	m.mu.Unlock()

	if attached {
		m.notify([]byte{kindIdle})
	}
}

// ModesValid implements hal.Port.
func (m *Master) ModesValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open && m.conn != nil
}

// IsMaster implements hal.Port.
func (m *Master) IsMaster() bool {
	return true
}

// ErrorBit implements hal.Port.
func (m *Master) ErrorBit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errBit
}

// Connected reports whether a slave is connected.
func (m *Master) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Hangup closes the slave's connection, if any.
func (m *Master) Hangup() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()
	if conn != nil {
		m.wmu.Lock()
		closeConn(conn)
		m.wmu.Unlock()
	}
}
