package netsync

import (
	"context"
	"time"

	"github.com/multilink-dev/multilink/pkg/protocol"
)

// leavePoll is how often Leave checks the TX queue.
const leavePoll = 2 * time.Millisecond

// Link is the transport surface Leave and Session drive.
// *link.Transport implements it.
type Link interface {
	LinkState
	protocol.Transport
	Update(delta time.Duration)
	TxIdle() bool
	Disconnect()
}

// Leave sends a Disconnect notice, waits until it has been transmitted and
// then tears the link down. If ctx ends first the link is torn down anyway
// and ctx's error is returned.
func Leave(ctx context.Context, l Link, out Sender) error {
	defer l.Disconnect()

	if !l.IsConnected() || !out.Send(protocol.Disconnect{}) {
		return nil
	}

	t := time.NewTicker(leavePoll)
	defer t.Stop()
	for !l.TxIdle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
