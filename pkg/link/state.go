package link

import "time"

// State is the top-level connection state.
type State uint8

const (
	StateDisconnected State = iota
	StateNegotiating
	StateConnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Role is the session role, read from the port once the mode is valid.
type Role uint8

const (
	RoleNone Role = iota
	// RoleHost drives the slot clock and owns the shared seed.
	RoleHost
	RolePeer
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RolePeer:
		return "peer"
	default:
		return "none"
	}
}

// ConnectionState describes the transport as seen from the application.
type ConnectionState struct {
	State   State
	Role    Role
	Phase   Phase
	Attempt int
	Elapsed time.Duration
}
