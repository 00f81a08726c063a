package netsync

import (
	"fmt"

	"github.com/multilink-dev/multilink/pkg/protocol"
)

// VersionCheck sends the local build version once per session and
// compares it with the peer's.
type VersionCheck struct {
	local protocol.ProgramVersion
	link  LinkState
	out   Sender

	sent bool
	done bool
	peer protocol.ProgramVersion
	err  error
}

// NewVersionCheck creates a check for the local version.
func NewVersionCheck(local protocol.ProgramVersion, link LinkState, out Sender) *VersionCheck {
	return &VersionCheck{local: local, link: link, out: out}
}

// Register installs the check's route on r.
func (v *VersionCheck) Register(r *protocol.Router) {
	protocol.On(r, func(ev protocol.ProgramVersion) {
		if v.done {
			return
		}
		v.done = true
		v.peer = ev
		switch v.local.Compare(ev) {
		case -1:
			v.err = fmt.Errorf("%w: local %s, peer %s", ErrUpdateRequired, v.local, ev)
		case 1:
			v.err = fmt.Errorf("%w: local %s, peer %s", ErrPeerUpdateRequired, v.local, ev)
		}
	})
}

// Update sends the local version once the link is up. A refused send is
// retried on the next call.
func (v *VersionCheck) Update() {
	if v.sent || !v.link.IsConnected() {
		return
	}
	v.sent = v.out.Send(v.local)
}

// Reset prepares the check for a new session.
func (v *VersionCheck) Reset() {
	v.sent = false
	v.done = false
	v.peer = protocol.ProgramVersion{}
	v.err = nil
}

// Done reports whether the peer's version has arrived.
func (v *VersionCheck) Done() bool {
	return v.done
}

// Peer returns the peer's version once Done reports true.
func (v *VersionCheck) Peer() (protocol.ProgramVersion, bool) {
	return v.peer, v.done
}

// Err returns ErrUpdateRequired or ErrPeerUpdateRequired, wrapped with
// both versions, when the builds differ.
func (v *VersionCheck) Err() error {
	return v.err
}
