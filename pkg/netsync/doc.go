// Package netsync keeps two link peers in step on top of the event
// protocol.
//
// # Components
//
//   - Broadcaster sends the local player's pose every broadcast interval.
//     The host also sends the shared generator state, which the peer adopts.
//   - Barrier holds both players at a level boundary until the host has
//     handed the peer the seed and difficulty of the next level.
//   - VersionCheck exchanges build versions once per session.
//   - Leave announces a graceful disconnect and waits for it to flush.
//
// Session wires all of them to one transport, dispatcher and router:
//
//	s := netsync.NewSession(tr, gen, netsync.Config{Version: v, Pose: player})
//	for range ticker.C {
//		s.Update(frameTime)
//	}
//
// Every component is single-goroutine. Call them from the loop that owns
// the transport.
package netsync
