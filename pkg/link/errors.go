package link

import "errors"

// Negotiation and link failures. They are reported through Transport.Err
// after the transport has returned to StateDisconnected.
var (
	ErrModeTimeout       = errors.New("link: peers never entered multi-player mode")
	ErrHandshakeTimeout  = errors.New("link: handshake not completed before timeout")
	ErrHandshakeMismatch = errors.New("link: handshake mismatch")
	ErrHandshakeLength   = errors.New("link: handshake length does not match frame size")
	ErrLinkFault         = errors.New("link: transmission error")
	ErrPeerLost          = errors.New("link: peer left multi-player mode")
	ErrPortOpen          = errors.New("link: failed to open port")
	ErrPoolExhausted     = errors.New("link: no free frame for the handshake")
)
