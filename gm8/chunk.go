package gm8

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/kailith/gmextract/internal/byteio"
)

// inflate reads n bytes from r as a zlib stream and decompresses them
// eagerly into an owned buffer. The cursor advances by exactly n whatever
// the decompressed size turns out to be.
func inflate(r *byteio.Reader, n int) ([]byte, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return nil, err
	}

	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}

	return out, nil
}
