// Package protocol implements the typed event layer carried by the link
// transport.
//
// Every event fits in a single link frame. Its first byte is the event type
// and the rest is a fixed layout for that type, zero padded to
// link.MaxMessageSize.
//
// # Wire Format
//
//	┌──────────┬──────────────────────────────────────────────┐
//	│ Type     │ Payload (fixed per type, little-endian)      │
//	│ (1 byte) │ (up to 11 bytes, zero padded)                │
//	└──────────┴──────────────────────────────────────────────┘
//
// Type 0 is reserved. Because the first byte of every event is non-zero,
// no event encodes to the all-zero frame the link uses for idle slots.
//
// # PlayerInfo Layout
//
//	[type][opt1][opt2][texture][player id][speed x][speed y][x: int16][y: int16]
//
//	opt1: bit 7 large sprite, bits 4-6 color, bits 0-3 color amount
//	opt2: bit 7 visible, bit 6 weapon drawn
//
// Speeds are sent as tenths in a signed byte.
//
// # Dispatch
//
// Receivers register typed callbacks on a Router:
//
//	r := protocol.NewRouter()
//	protocol.On(r, func(ev protocol.SyncSeed) { rng.Seed(ev.State) })
//	d := protocol.NewDispatcher(transport)
//	d.PollAndDispatch(r)
//
// Frames whose type is unknown to this build are skipped, so newer peers
// can add events without breaking older ones.
package protocol
