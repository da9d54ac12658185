package gm8

import (
	"fmt"

	"github.com/kailith/gmextract/internal/byteio"
)

// Point is an x,y offset in pixels
type Point struct {
	X, Y int32
}

// BoundingBox holds the pixel extents of a collision map
type BoundingBox struct {
	Width, Height            uint32
	Left, Right, Bottom, Top uint32
}

// CollisionMap is a per-pixel occupancy mask used by the runner for
// precise hit-testing. Mask holds one byte per pixel, 0 or 1, row-major,
// Bounds.Width*Bounds.Height entries.
type CollisionMap struct {
	Version uint32
	Bounds  BoundingBox
	Mask    []byte
}

// Sprite is a sprite resource decoded from the executable. Every frame
// shares the same dimensions and owns Width*Height*4 bytes of RGBA pixels.
// Colliders holds exactly one shared map, or one per frame when
// PerFrameColliders is set.
type Sprite struct {
	Name       string
	Version    uint32
	Origin     Point
	Width      uint32
	Height     uint32
	FrameCount uint32
	Frames     [][]byte
	Colliders  []CollisionMap

	PerFrameColliders bool
}

type spriteError struct {
	name  string
	cause string
}

func (e *spriteError) Error() string {
	return fmt.Sprintf("sprite %q: %s", e.name, e.cause)
}

// bgraToRGBA swaps the blue and red channel of every 4-byte pixel in place
func bgraToRGBA(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// readSprite decodes one decompressed sprite chunk. A zero presence flag
// means the slot is empty and yields (nil, nil).
func readSprite(r *byteio.Reader) (*Sprite, error) {
	present, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}

	s := new(Sprite)

	if s.Name, err = r.PascalString(); err != nil {
		return nil, err
	}
	if s.Version, err = r.Uint32(); err != nil {
		return nil, err
	}
	if s.Origin.X, err = r.Int32(); err != nil {
		return nil, err
	}
	if s.Origin.Y, err = r.Int32(); err != nil {
		return nil, err
	}
	if s.FrameCount, err = r.Uint32(); err != nil {
		return nil, err
	}
	if s.FrameCount == 0 {
		// no frames, no colliders
		return s, nil
	}

	s.Frames = make([][]byte, 0, s.FrameCount)
	for i := uint32(0); i < s.FrameCount; i++ {
		// per-frame format version, nothing to do with it
		if _, err := r.Uint32(); err != nil {
			return nil, err
		}

		width, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		height, err := r.Uint32()
		if err != nil {
			return nil, err
		}

		// the first frame fixes the sprite dimensions
		if i == 0 {
			s.Width, s.Height = width, height
		} else if width != s.Width || height != s.Height {
			return nil, &spriteError{s.Name, "inconsistent frame dimensions"}
		}

		pixelLen, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		if pixelLen != width*height*4 {
			return nil, &spriteError{s.Name, "pixel data length does not match dimensions"}
		}

		pix, err := r.Bytes(int(pixelLen))
		if err != nil {
			return nil, err
		}

		// the runner stores BGRA; normalise to RGBA
		frame := make([]byte, len(pix))
		copy(frame, pix)
		bgraToRGBA(frame)
		s.Frames = append(s.Frames, frame)
	}

	perFrame, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	s.PerFrameColliders = perFrame != 0

	count := uint32(1)
	if s.PerFrameColliders {
		count = s.FrameCount
	}
	s.Colliders = make([]CollisionMap, 0, count)
	for i := uint32(0); i < count; i++ {
		m, err := readCollisionMap(r)
		if err != nil {
			return nil, err
		}
		s.Colliders = append(s.Colliders, m)
	}

	return s, nil
}

// readCollisionMap decodes one collision map. Each mask entry is stored as
// a u32 and collapses to a single 0 or 1 byte.
func readCollisionMap(r *byteio.Reader) (CollisionMap, error) {
	var m CollisionMap
	var err error

	if m.Version, err = r.Uint32(); err != nil {
		return m, err
	}
	if m.Bounds.Width, err = r.Uint32(); err != nil {
		return m, err
	}
	if m.Bounds.Height, err = r.Uint32(); err != nil {
		return m, err
	}
	if m.Bounds.Left, err = r.Uint32(); err != nil {
		return m, err
	}
	if m.Bounds.Right, err = r.Uint32(); err != nil {
		return m, err
	}
	if m.Bounds.Bottom, err = r.Uint32(); err != nil {
		return m, err
	}
	if m.Bounds.Top, err = r.Uint32(); err != nil {
		return m, err
	}

	size := int(m.Bounds.Width) * int(m.Bounds.Height)
	m.Mask = make([]byte, size)
	for i := 0; i < size; i++ {
		v, err := r.Uint32()
		if err != nil {
			return m, err
		}
		if v != 0 {
			m.Mask[i] = 1
		}
	}

	return m, nil
}
