package gm8

import (
	"github.com/kailith/gmextract/internal/byteio"
)

// Sound is a sound resource decoded from the executable.
type Sound struct {
	// Name is the asset name visible in GML and the editor
	Name string

	// Version is the record format version
	Version uint32

	// Kind is the legacy sound kind code
	Kind uint32

	// FileType is the source file extension, including the dot
	FileType string

	// FileName is the source file name
	FileName string

	// Data is the raw file payload. Nil when the resource was created
	// without associated audio data.
	Data []byte

	// Volume is the output volume, 0.0 to 1.0
	Volume float64

	// Pan is the stereo panning, -1.0 (left) to +1.0 (right)
	Pan float64

	// Preload reports whether the samples are decoded at load time
	Preload bool
}

// readSound decodes one decompressed sound chunk. A zero presence flag
// means the slot is empty and yields (nil, nil).
func readSound(r *byteio.Reader) (*Sound, error) {
	present, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}

	s := new(Sound)

	if s.Name, err = r.PascalString(); err != nil {
		return nil, err
	}
	if s.Version, err = r.Uint32(); err != nil {
		return nil, err
	}
	if s.Kind, err = r.Uint32(); err != nil {
		return nil, err
	}
	if s.FileType, err = r.PascalString(); err != nil {
		return nil, err
	}
	if s.FileName, err = r.PascalString(); err != nil {
		return nil, err
	}

	hasData, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if hasData != 0 {
		n, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		if s.Data, err = r.Bytes(int(n)); err != nil {
			return nil, err
		}
	}

	// reserved field of unknown purpose
	if _, err := r.Uint32(); err != nil {
		return nil, err
	}

	if s.Volume, err = r.Float64(); err != nil {
		return nil, err
	}
	if s.Pan, err = r.Float64(); err != nil {
		return nil, err
	}

	preload, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	s.Preload = preload != 0

	return s, nil
}
