package gm8

import (
	"github.com/kailith/gmextract/internal/byteio"
)

// decryptAssets reverses the two-pass scramble the runner applies to the
// asset data region and returns the region size. The 256-byte swap table is
// stored between two garbage blocks whose lengths are u32 counts of 4-byte
// words. On return the cursor sits at the start of the decrypted region.
//
// Both passes must run back to front with exactly these bounds; the scramble
// has no integrity check, so a wrong direction or pass order yields silently
// corrupt output.
func decryptAssets(r *byteio.Reader) (int, error) {
	garbage1, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	garbage2, err := r.Uint32()
	if err != nil {
		return 0, err
	}

	if err := r.Skip(int(garbage1) * 4); err != nil {
		return 0, err
	}
	table, err := r.Bytes(256)
	if err != nil {
		return 0, err
	}
	var swap [256]byte
	copy(swap[:], table)
	if err := r.Skip(int(garbage2) * 4); err != nil {
		return 0, err
	}

	// swap is a bijection over the byte space; reverse is its inverse
	var reverse [256]byte
	for i, v := range swap {
		reverse[v] = byte(i)
	}

	length, err := r.Uint32()
	if err != nil {
		return 0, err
	}

	pos, n := r.Pos(), int(length)
	data := r.Data()
	if pos+n > len(data) {
		return 0, byteio.ErrTruncated
	}

	// first pass: byte substitution plus a chained, position-keyed
	// subtraction. The first region byte has no predecessor and is left
	// alone. All arithmetic wraps mod 256.
	for i := pos + n; i > pos+1; i-- {
		data[i-1] = reverse[data[i-1]] - data[i-2] - byte(i-(pos+1))
	}

	// second pass: transposition keyed by the forward swap table
	for i := pos + n - 2; i >= pos; i-- {
		b := i - int(swap[(i-pos)&0xff])
		if b < pos {
			b = pos
		}
		data[i], data[b] = data[b], data[i]
	}

	return n, nil
}
