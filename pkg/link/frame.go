package link

// Wire geometry.
const (
	// MaxMessageSize is the fixed size of a wire frame in bytes.
	MaxMessageSize = 12

	// WordSize is the number of bytes moved per slot.
	WordSize = 2

	// FrameChunks is the number of slots needed to move one frame.
	FrameChunks = MaxMessageSize / WordSize
)

// DefaultHandshake is the version string exchanged during negotiation.
// Its length must equal MaxMessageSize.
const DefaultHandshake = "link__v00002"

// Queue sizing. Pools carry headroom over their ring for the frame in
// flight and the frame being assembled or held by the consumer.
const (
	TxRingSize = 32
	RxRingSize = 64
	TxPoolSize = TxRingSize + 2
	RxPoolSize = RxRingSize + 2
)

// Frame is one wire frame.
type Frame [MaxMessageSize]byte

// IsZero reports whether every byte of the frame is zero. A zero frame is
// indistinguishable from an idle slot and is never delivered.
func (f *Frame) IsZero() bool {
	for _, b := range f {
		if b != 0 {
			return false
		}
	}
	return true
}

// word returns the i'th little-endian word of the frame.
func (f *Frame) word(i int) uint16 {
	return uint16(f[i*WordSize]) | uint16(f[i*WordSize+1])<<8
}

// setWord stores w as the i'th word of the frame.
func (f *Frame) setWord(i int, w uint16) {
	f[i*WordSize] = byte(w)
	f[i*WordSize+1] = byte(w >> 8)
}
