package link

import (
	"bytes"
	"time"
)

// Phase is the sub-state of a negotiation.
type Phase uint8

const (
	// PhaseAwaitMode waits for every party to enter multi-player mode.
	PhaseAwaitMode Phase = iota
	// PhaseHandshake waits for the peer's version string.
	PhaseHandshake
	// PhaseBackoff waits before the host reopens the port for a retry.
	PhaseBackoff
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseAwaitMode:
		return "await-mode"
	case PhaseHandshake:
		return "handshake"
	case PhaseBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// Action tells the transport what to do after a negotiation step.
type Action uint8

const (
	ActionNone Action = iota
	// ActionStartHandshake latches the role, queues the handshake and
	// attaches the framer.
	ActionStartHandshake
	// ActionRetry closes the port and discards queued frames before a
	// backoff.
	ActionRetry
	// ActionReopen reopens the port after a backoff.
	ActionReopen
	// ActionRestart detaches the framer and discards queued frames because
	// the mode signal dropped.
	ActionRestart
	// ActionConnect completes the negotiation.
	ActionConnect
	// ActionFail abandons the negotiation.
	ActionFail
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionStartHandshake:
		return "start-handshake"
	case ActionRetry:
		return "retry"
	case ActionReopen:
		return "reopen"
	case ActionRestart:
		return "restart"
	case ActionConnect:
		return "connect"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Observation is what the transport saw since the previous step.
type Observation struct {
	Delta      time.Duration
	ModesValid bool
	IsMaster   bool

	// Received is the first frame that arrived during the handshake phase,
	// or nil when none has.
	Received []byte
}

// Limits bound a negotiation.
type Limits struct {
	Timeout    time.Duration
	RetryDelay time.Duration
	Handshake  []byte
}

// Negotiation is the state of an in-progress negotiation. Step is a pure
// function of the state, the observation and the limits.
type Negotiation struct {
	Phase   Phase
	Role    Role
	Attempt int

	// Elapsed counts from the first step and is never reset by retries.
	Elapsed time.Duration

	// Waited counts time spent in the current backoff.
	Waited time.Duration
}

// Step advances the negotiation by one observation.
func (n Negotiation) Step(obs Observation, lim Limits) (Negotiation, Action, error) {
	if len(lim.Handshake) != MaxMessageSize {
		return n, ActionFail, ErrHandshakeLength
	}

	n.Elapsed += obs.Delta

	switch n.Phase {
	case PhaseAwaitMode:
		if obs.ModesValid {
			n.Role = RolePeer
			if obs.IsMaster {
				n.Role = RoleHost
			}
			n.Phase = PhaseHandshake
			n.Attempt++
			return n, ActionStartHandshake, nil
		}
		if n.Elapsed >= lim.Timeout {
			return n, ActionFail, ErrModeTimeout
		}

	case PhaseHandshake:
		if obs.Received != nil {
			if bytes.Equal(obs.Received, lim.Handshake) {
				return n, ActionConnect, nil
			}
			if n.Role != RoleHost {
				return n, ActionFail, ErrHandshakeMismatch
			}
			if n.Elapsed >= lim.Timeout {
				return n, ActionFail, ErrHandshakeTimeout
			}
			n.Phase = PhaseBackoff
			n.Waited = 0
			return n, ActionRetry, nil
		}
		if n.Elapsed >= lim.Timeout {
			return n, ActionFail, ErrHandshakeTimeout
		}
		if !obs.ModesValid {
			n.Phase = PhaseAwaitMode
			return n, ActionRestart, nil
		}

	case PhaseBackoff:
		if n.Elapsed >= lim.Timeout {
			return n, ActionFail, ErrHandshakeTimeout
		}
		n.Waited += obs.Delta
		if n.Waited >= lim.RetryDelay {
			n.Phase = PhaseAwaitMode
			n.Waited = 0
			return n, ActionReopen, nil
		}
	}

	return n, ActionNone, nil
}
