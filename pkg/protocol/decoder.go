package protocol

import (
	"encoding/binary"
	"errors"
)

// Common decoding errors.
var (
	ErrBufferTooShort = errors.New("protocol: buffer too short")
	ErrUnknownType    = errors.New("protocol: unknown event type")
)

// Decoder reads little-endian values from a frame.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new decoder from the given byte slice.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

func (d *Decoder) take(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, ErrBufferTooShort
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads a signed byte.
func (d *Decoder) ReadInt8() (int8, error) {
	b, err := d.ReadByte()
	return int8(b), err
}

// ReadUint16 reads a little-endian uint16.
func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt16 reads a little-endian int16.
func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
