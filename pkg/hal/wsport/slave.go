package wsport

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/multilink-dev/multilink/pkg/hal"
)

// Slave is the dialing end. Open connects to the master's URL.
type Slave struct {
	dialer *websocket.Dialer
	logger *slog.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	errBit     bool
	masterOpen bool
	handler    hal.SlotHandler
	pending    hal.SlotHandler
	send       uint16

	// burst is set while the master may be mid-burst: from connect or
	// the first slot until the next sync or idle notice.
	burst bool

	wmu sync.Mutex
}

var _ hal.Port = (*Slave)(nil)

// NewSlave creates a closed slave end.
func NewSlave() *Slave {
	return &Slave{
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
			ReadBufferSize:   64,
			WriteBufferSize:  64,
		},
		logger: slog.Default().With("component", "wsport", "end", "slave"),
	}
}

// SetLogger replaces the slave's logger.
func (s *Slave) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Open implements hal.Port by dialing the master at url, for example
// ws://10.0.0.2:7420/link. An existing connection is closed first.
func (s *Slave) Open(url string) error {
	s.Close()

	conn, _, err := s.dialer.Dial(url, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.errBit = false
	s.masterOpen = false
	s.handler = nil
	s.pending = nil
	s.send = hal.Heartbeat
	// Until the master reports otherwise, assume it is mid-burst.
	s.burst = true
	s.mu.Unlock()

	s.logger.Info("connected to master", "url", url)
	go s.readLoop(conn)
	return nil
}

func (s *Slave) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.dropConn(conn, err)
			return
		}
		if len(data) == 0 {
			continue
		}

		switch data[0] {
		case kindWord:
			w, ok := parseWord(data)
			if !ok {
				continue
			}
			reply := s.exchange(w)
			if err := s.write(conn, wordMessage(reply)); err != nil {
				s.dropConn(conn, err)
				return
			}
		case kindSync:
			s.startBurst()
		case kindIdle:
			s.endBurst()
		case kindMode:
			if len(data) != 2 {
				continue
			}
			open := data[1] == 1
			s.mu.Lock()
			s.masterOpen = open
			s.mu.Unlock()
			if !open {
				s.endBurst()
			}
		}
	}
}

// exchange performs the slave half of one slot and returns the word that
// was in the send register.
func (s *Slave) exchange(w uint16) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply := s.send
	if s.handler != nil {
		s.handler.ReceiveWord(w)
		s.send = s.handler.NextWord()
	}
	s.burst = true
	return reply
}

// startBurst promotes a handler held back by Attach.
func (s *Slave) startBurst() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.burst = false
	if s.pending != nil {
		s.handler = s.pending
		s.pending = nil
		s.send = s.handler.NextWord()
	}
}

// endBurst records that the master stopped clocking. A held handler goes
// live; the master's next burst starts on its first word.
func (s *Slave) endBurst() {
	s.startBurst()
}

func (s *Slave) dropConn(conn *websocket.Conn, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return
	}
	s.conn = nil
	s.masterOpen = false
	s.handler = nil
	s.pending = nil
	conn.Close()
	if isGracefulClose(err) {
		s.logger.Info("master closed the connection")
		return
	}
	s.errBit = true
	s.logger.Warn("master connection lost", "error", err)
}

func (s *Slave) write(conn *websocket.Conn, b []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, b)
}

// Close implements hal.Port by closing the connection.
func (s *Slave) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.errBit = false
	s.masterOpen = false
	s.handler = nil
	s.pending = nil
	s.send = 0
	s.mu.Unlock()

	if conn != nil {
		s.wmu.Lock()
		closeConn(conn)
		s.wmu.Unlock()
	}
	return nil
}

// Attach implements hal.Port.
func (s *Slave) Attach(h hal.SlotHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return
	}
	if s.burst {
		s.pending = h
		return
	}
	s.handler = h
	s.send = h.NextWord()
}

// Detach implements hal.Port.
func (s *Slave) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
	s.pending = nil
	if s.conn != nil {
		s.send = hal.Heartbeat
	}
}

// ModesValid implements hal.Port.
func (s *Slave) ModesValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && s.masterOpen
}

// IsMaster implements hal.Port.
func (s *Slave) IsMaster() bool {
	return false
}

// ErrorBit implements hal.Port.
func (s *Slave) ErrorBit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errBit
}
