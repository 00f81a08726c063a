package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/multilink-dev/multilink/pkg/link"
)

// Encoder writes a fixed-size frame. Multi-byte values are little-endian
// regardless of host byte order. Unwritten bytes stay zero.
type Encoder struct {
	buf [link.MaxMessageSize]byte
	n   int
}

// Reset empties the encoder.
func (e *Encoder) Reset() {
	e.buf = [link.MaxMessageSize]byte{}
	e.n = 0
}

// Bytes returns the whole frame, zero padded.
func (e *Encoder) Bytes() []byte {
	return e.buf[:]
}

// grow reserves n bytes. An event layout that overflows the frame is a
// programming error.
func (e *Encoder) grow(n int) []byte {
	if e.n+n > len(e.buf) {
		panic(fmt.Sprintf("protocol: event layout exceeds %d bytes", len(e.buf)))
	}
	b := e.buf[e.n : e.n+n]
	e.n += n
	return b
}

// WriteByte appends a single byte.
func (e *Encoder) WriteByte(b byte) {
	e.grow(1)[0] = b
}

// WriteInt8 appends a signed byte.
func (e *Encoder) WriteInt8(v int8) {
	e.WriteByte(byte(v))
}

// WriteUint16 appends a little-endian uint16.
func (e *Encoder) WriteUint16(v uint16) {
	binary.LittleEndian.PutUint16(e.grow(2), v)
}

// WriteInt16 appends a little-endian int16.
func (e *Encoder) WriteInt16(v int16) {
	e.WriteUint16(uint16(v))
}

// WriteUint32 appends a little-endian uint32.
func (e *Encoder) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(e.grow(4), v)
}
