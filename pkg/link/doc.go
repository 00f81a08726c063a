// Package link implements the multi-player link-layer transport.
//
// The physical channel moves one 16-bit word in each direction per slot
// and never goes idle. The transport turns it into a queue of fixed-size
// frames that the application can send and poll without blocking.
//
// # Design Goals
//
//   - No allocation after construction: frames live in fixed pools
//   - Nothing blocks: send and poll report failure immediately
//   - Loss is counted, never raised
//   - Disconnect is idempotent and leaves no frame on loan
//
// # Wire Format
//
// A frame is MaxMessageSize bytes sent as FrameChunks little-endian words:
//
//	┌────────┬────────┬────────┬────────┬────────┬────────┐
//	│ word 0 │ word 1 │ word 2 │ word 3 │ word 4 │ word 5 │
//	│ b0 b1  │ b2 b3  │ b4 b5  │ b6 b7  │ b8 b9  │ b10 b11│
//	└────────┴────────┴────────┴────────┴────────┴────────┘
//
// When nothing is queued the framer sends an all-zero filler frame. A
// received all-zero frame is therefore discarded, and no application
// payload may consist only of zero bytes. A frame of hal.NoPeer words, as
// read from an absent peer, is discarded too.
//
// # Queues
//
// Each direction has a Pool of frames and a Ring of handles into it:
//
//	SendMessage ──> TX Ring ──> Framer ──> Port ──> Framer ──> RX Ring ──> PollMessage
//	(app)                     (slot goroutine)                         (app)
//
// A ring that overflows evicts the entry at its write cursor and counts a
// loss. A pool that runs dry drops the frame and counts a loss.
//
// # Negotiation
//
//	Disconnected ──Connect/Listen──> Negotiating ──handshake ok──> Connected
//	      ^                               │                            │
//	      └───────── timeout, mismatch ───┘<── Disconnect, error bit, ──┘
//	                                           peer left the mode
//
// Negotiation waits for the port's mode signal, latches the role and
// exchanges a version string of exactly MaxMessageSize bytes. A host that
// receives the wrong bytes closes the port and retries; a peer gives up.
// The whole negotiation is bounded by a single timeout. See
// Negotiation.Step for the transition function.
package link
