package byteio

import (
	"bytes"
	"encoding/binary"
	"math"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Writer builds a buffer from the same primitives Reader consumes.
// Writes to the underlying bytes.Buffer never error so none of the
// methods return one.
type Writer struct {
	buf bytes.Buffer
}

// Bytes returns the accumulated buffer
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written so far
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Write appends b verbatim
func (w *Writer) Write(b []byte) {
	_, _ = w.buf.Write(b)
}

// Uint32 appends a little-endian 32-bit unsigned integer
func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

// Bool appends a u32 of 1 or 0
func (w *Writer) Bool(v bool) {
	if v {
		w.Uint32(1)
	} else {
		w.Uint32(0)
	}
}

// Float64 appends a little-endian IEEE 754 64-bit float
func (w *Writer) Float64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.Write(b[:])
}

// PascalString appends a u32 length followed by s encoded as
// Windows-1252, substituting characters outside the codepage
func (w *Writer) PascalString(s string) {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		b = []byte(s)
	}
	w.Uint32(uint32(len(b)))
	w.Write(b)
}
