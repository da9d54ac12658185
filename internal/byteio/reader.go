/*
Package byteio provides little-endian cursor access over in-memory buffers.

The record formats written by the GameMaker 8.0 IDE and runner are built
almost entirely from little-endian 32-bit integers, 64-bit floats and
length-prefixed strings, so those are the only primitives offered here.
*/
package byteio

import (
	"encoding/binary"
	"errors"
	"math"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrTruncated is returned when a read requires more bytes than remain
	ErrTruncated = errors.New("byteio: truncated input")
	// ErrOutOfBounds is returned when a seek lands outside the buffer
	ErrOutOfBounds = errors.New("byteio: seek out of bounds")
)

// Reader is a cursor over an in-memory buffer. It does not copy the buffer;
// Data exposes it for the one caller that has to rewrite bytes in place.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of b
func NewReader(b []byte) *Reader {
	return &Reader{data: b}
}

// Data returns the underlying buffer
func (r *Reader) Data() []byte {
	return r.data
}

// Pos returns the current absolute cursor position
func (r *Reader) Pos() int {
	return r.pos
}

// SetPos moves the cursor to the absolute position pos
func (r *Reader) SetPos(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return ErrOutOfBounds
	}
	r.pos = pos
	return nil
}

// Skip moves the cursor by the signed offset delta
func (r *Reader) Skip(delta int) error {
	return r.SetPos(r.pos + delta)
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Bytes returns the next n bytes as a slice of the underlying buffer and
// advances the cursor past them
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Uint32 reads a little-endian 32-bit unsigned integer
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int32 reads a little-endian 32-bit signed integer
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Float64 reads a little-endian IEEE 754 64-bit float
func (r *Reader) Float64() (float64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// PascalString reads a u32 length followed by that many bytes of
// Windows-1252 text. Decoding is lossy, never fatal; bytes with no mapping
// come out as the Unicode replacement character.
func (r *Reader) PascalString() (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		// charmap decoders are total over the byte space
		return string(b), nil
	}
	return string(s), nil
}
