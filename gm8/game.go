/*
Package gm8 reads the design-time assets embedded in executables built by
GameMaker 8.0. The runner stores them as a sequence of zlib-compressed
chunks after a scrambled region, far past the end of the PE headers.
*/
package gm8

import (
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"

	"github.com/kailith/gmextract/internal/byteio"
)

const (
	// magicPos is the fixed offset of the format marker within the executable
	magicPos = 2000000
	// magic identifies a GameMaker 8.0 build
	magic = 1234321
)

var (
	errInvalidExeHeader   = errors.New("gm8: invalid executable header (missing 'MZ')")
	errInvalidMagic       = errors.New("gm8: format marker not found, not a GameMaker 8.0 executable")
	errUnsupportedSection = errors.New("gm8: unsupported non-empty section")
)

// Game holds the asset collections decoded from one executable. Both slices
// keep their slot positions: a nil entry is a deleted or placeholder
// resource index, and later resources refer to assets by position.
type Game struct {
	Sounds  []*Sound
	Sprites []*Sprite

	// Lenient reads past non-empty extension, trigger and constant
	// sections the way older dumps of this format did. Those sections
	// carry no byte length, so their entries cannot be skipped over;
	// without Lenient any non-zero count is an error.
	Lenient bool

	// Logger narrates progress at Debug level. It never influences
	// decoding. Nil discards everything.
	Logger log.Interface
}

func (g *Game) log() log.Interface {
	if g.Logger != nil {
		return g.Logger
	}
	return &log.Logger{Handler: discard.Default}
}

func validate(r *byteio.Reader) error {
	data := r.Data()
	if len(data) < 2 || data[0] != 'M' || data[1] != 'Z' {
		return errInvalidExeHeader
	}

	if err := r.SetPos(magicPos); err != nil {
		return errInvalidMagic
	}
	v, err := r.Uint32()
	if err != nil || v != magic {
		return errInvalidMagic
	}

	// unparsed version/build block
	return r.Skip(12)
}

// UnmarshalBinary decodes the asset data from a complete executable image.
// Decoding is all-or-nothing: the chunk sequence has no resynchronisation
// markers, so the first failure aborts the run and no partial collections
// are returned.
func (g *Game) UnmarshalBinary(b []byte) error {
	logger := g.log()

	r := byteio.NewReader(b)
	if err := validate(r); err != nil {
		return err
	}
	logger.Debugf("detected GameMaker 8.0 marker %d at %#x", magic, magicPos)

	// settings chunk: inflated to prove it is well formed but not decoded
	n, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("gm8: settings: %w", err)
	}
	settings, err := inflate(r, int(n))
	if err != nil {
		return fmt.Errorf("gm8: settings: %w", err)
	}
	logger.Debugf("settings chunk: %d compressed, %d inflated", n, len(settings))

	// embedded DirectX DLL name and payload, never needed
	dll, err := r.PascalString()
	if err != nil {
		return fmt.Errorf("gm8: dll name: %w", err)
	}
	n, err = r.Uint32()
	if err != nil {
		return fmt.Errorf("gm8: dll data: %w", err)
	}
	if err := r.Skip(int(n)); err != nil {
		return fmt.Errorf("gm8: dll data: %w", err)
	}
	logger.Debugf("skipped embedded DLL %q (%d bytes)", dll, n)

	size, err := decryptAssets(r)
	if err != nil {
		return fmt.Errorf("gm8: decrypt: %w", err)
	}
	logger.Debugf("decrypted asset region (%d bytes)", size)

	// dead fields at the start of the decrypted region; the stored count
	// underreports by six words
	n, err = r.Uint32()
	if err != nil {
		return fmt.Errorf("gm8: dead fields: %w", err)
	}
	if err := r.Skip((int(n) + 6) * 4); err != nil {
		return fmt.Errorf("gm8: dead fields: %w", err)
	}

	for _, section := range []string{"extensions", "triggers", "constants"} {
		ver, err := r.Uint32()
		if err != nil {
			return fmt.Errorf("gm8: %s: %w", section, err)
		}
		count, err := r.Uint32()
		if err != nil {
			return fmt.Errorf("gm8: %s: %w", section, err)
		}
		if count != 0 {
			if !g.Lenient {
				return fmt.Errorf("%w: %s (version %d, count %d)", errUnsupportedSection, section, ver, count)
			}
			logger.Debugf("ignoring %d %s entries (version %d)", count, section, ver)
		}
	}

	ver, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("gm8: sounds: %w", err)
	}
	count, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("gm8: sounds: %w", err)
	}
	logger.Debugf("reading sounds (version %d, count %d)", ver, count)

	g.Sounds = make([]*Sound, 0, count)
	for i := 0; i < int(count); i++ {
		chunk, err := nextChunk(r)
		if err != nil {
			return fmt.Errorf("gm8: sound %d: %w", i, err)
		}
		sound, err := readSound(byteio.NewReader(chunk))
		if err != nil {
			return fmt.Errorf("gm8: sound %d: %w", i, err)
		}
		if sound != nil {
			logger.Debugf("added sound %q (%s)", sound.Name, sound.FileName)
		}
		g.Sounds = append(g.Sounds, sound)
	}

	ver, err = r.Uint32()
	if err != nil {
		return fmt.Errorf("gm8: sprites: %w", err)
	}
	count, err = r.Uint32()
	if err != nil {
		return fmt.Errorf("gm8: sprites: %w", err)
	}
	logger.Debugf("reading sprites (version %d, count %d)", ver, count)

	g.Sprites = make([]*Sprite, 0, count)
	for i := 0; i < int(count); i++ {
		chunk, err := nextChunk(r)
		if err != nil {
			return fmt.Errorf("gm8: sprite %d: %w", i, err)
		}
		sprite, err := readSprite(byteio.NewReader(chunk))
		if err != nil {
			return fmt.Errorf("gm8: sprite %d: %w", i, err)
		}
		if sprite != nil {
			logger.Debugf("added sprite %q (%dx%d, %d frames)", sprite.Name, sprite.Width, sprite.Height, sprite.FrameCount)
		}
		g.Sprites = append(g.Sprites, sprite)
	}

	return nil
}

// nextChunk reads a u32 chunk length and inflates the chunk it prefixes
func nextChunk(r *byteio.Reader) ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	return inflate(r, int(n))
}
