// Package wsport carries a multi-player port over a WebSocket.
//
// The master end accepts a single peer over HTTP and owns the slot clock:
// every slot it sends its word and waits for the slave's reply, so both
// sides see exactly one transfer per slot as on a serial cable. The slave
// end dials the master's URL.
//
// # Wire Format
//
// Every WebSocket message is binary and starts with a kind byte:
//
//	kindWord  0x01 lo hi   master: send register; slave: reply
//	kindSync  0x02         master attached a handler, a burst starts
//	kindIdle  0x03         master detached, no slots until the next sync
//	kindMode  0x04 b       master entered (b=1) or left (b=0) multi-player mode
//
// Words are little-endian. The slave is in multi-player mode while its
// connection is open.
package wsport

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

const (
	kindWord byte = 0x01
	kindSync byte = 0x02
	kindIdle byte = 0x03
	kindMode byte = 0x04
)

const (
	// DefaultSlotPeriod is the master's default slot clock.
	DefaultSlotPeriod = 2 * time.Millisecond

	replyTimeout = time.Second
	writeTimeout = time.Second
)

var (
	// ErrBusy is reported to a second peer while one is connected.
	ErrBusy = errors.New("wsport: a peer is already connected")

	errReplyTimeout = errors.New("wsport: slave did not answer the slot")
)

func wordMessage(w uint16) []byte {
	return []byte{kindWord, byte(w), byte(w >> 8)}
}

func parseWord(b []byte) (uint16, bool) {
	if len(b) != 3 || b[0] != kindWord {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b[1:]), true
}

func modeMessage(open bool) []byte {
	if open {
		return []byte{kindMode, 1}
	}
	return []byte{kindMode, 0}
}

// isGracefulClose reports whether err is the peer closing on purpose.
func isGracefulClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// closeConn sends a normal close frame and closes conn.
func closeConn(conn *websocket.Conn) {
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout),
	)
	conn.Close()
}
