/*
Package gmres reads and writes the standalone sound resource record used by
GameMaker 8.0 project files. Unlike the records embedded in a built
executable this format is neither compressed nor scrambled; it is a flat
sequence of pascal strings, u32s and f64s.
*/
package gmres

import (
	"errors"
	"fmt"

	"github.com/kailith/gmextract/internal/byteio"
)

// Version is the record format version written by GameMaker 8.0
const Version = 800

var errVersion = errors.New("gmres: unsupported sound record version")

// Kind is the legacy sound kind code
type Kind uint32

// These map 1:1 with the sound kind selector in the IDE
const (
	Normal Kind = iota
	BackgroundMusic
	ThreeDimensional
	Multimedia
)

func (k Kind) String() string {
	strings := map[Kind]string{
		Normal:           "Normal",
		BackgroundMusic:  "BackgroundMusic",
		ThreeDimensional: "3D",
		Multimedia:       "Multimedia",
	}

	if s, ok := strings[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint32(k))
}

// Effects are the load-time filters that can be checked in the sound editor
type Effects struct {
	Chorus  bool
	Echo    bool
	Flanger bool
	Gargle  bool
	Reverb  bool
}

const (
	effectChorus = 1 << iota
	effectEcho
	effectFlanger
	effectGargle
	effectReverb
)

func (e Effects) bits() uint32 {
	var v uint32
	if e.Chorus {
		v |= effectChorus
	}
	if e.Echo {
		v |= effectEcho
	}
	if e.Flanger {
		v |= effectFlanger
	}
	if e.Gargle {
		v |= effectGargle
	}
	if e.Reverb {
		v |= effectReverb
	}
	return v
}

func effectsFromBits(v uint32) Effects {
	return Effects{
		Chorus:  v&effectChorus != 0,
		Echo:    v&effectEcho != 0,
		Flanger: v&effectFlanger != 0,
		Gargle:  v&effectGargle != 0,
		Reverb:  v&effectReverb != 0,
	}
}

// Sound is a sound resource as stored on disk by the IDE
type Sound struct {
	// Name is the asset name visible in GML and the editor
	Name string

	// Extension is the source file type, including the dot
	Extension string

	// Source is the source file name
	Source string

	// Data is the raw file payload; nil when the resource was created
	// without associated audio data
	Data []byte

	Kind    Kind
	Effects Effects

	// Volume is 0.0 to 1.0, although the editor floors it at 0.3
	Volume float64

	// Pan is -1.0 (left) to +1.0 (right)
	Pan float64

	Preload bool
}

// MarshalBinary encodes the sound into binary form and returns the result
func (s *Sound) MarshalBinary() ([]byte, error) {
	w := new(byteio.Writer)

	w.PascalString(s.Name)
	w.Uint32(Version)
	w.Uint32(uint32(s.Kind))
	w.PascalString(s.Extension)
	w.PascalString(s.Source)

	if s.Data != nil {
		w.Uint32(1)
		w.Uint32(uint32(len(s.Data)))
		w.Write(s.Data)
	} else {
		w.Uint32(0)
	}

	w.Uint32(s.Effects.bits())
	w.Float64(s.Volume)
	w.Float64(s.Pan)
	w.Bool(s.Preload)

	return w.Bytes(), nil
}

// UnmarshalBinary decodes the sound from binary form
func (s *Sound) UnmarshalBinary(b []byte) error {
	r := byteio.NewReader(b)

	var err error
	if s.Name, err = r.PascalString(); err != nil {
		return err
	}

	version, err := r.Uint32()
	if err != nil {
		return err
	}
	if version != Version {
		return fmt.Errorf("%w: %d", errVersion, version)
	}

	kind, err := r.Uint32()
	if err != nil {
		return err
	}
	s.Kind = Kind(kind)

	if s.Extension, err = r.PascalString(); err != nil {
		return err
	}
	if s.Source, err = r.PascalString(); err != nil {
		return err
	}

	hasData, err := r.Uint32()
	if err != nil {
		return err
	}
	s.Data = nil
	if hasData != 0 {
		n, err := r.Uint32()
		if err != nil {
			return err
		}
		data, err := r.Bytes(int(n))
		if err != nil {
			return err
		}
		s.Data = append([]byte(nil), data...)
	}

	effects, err := r.Uint32()
	if err != nil {
		return err
	}
	s.Effects = effectsFromBits(effects)

	if s.Volume, err = r.Float64(); err != nil {
		return err
	}
	if s.Pan, err = r.Float64(); err != nil {
		return err
	}

	preload, err := r.Uint32()
	if err != nil {
		return err
	}
	s.Preload = preload != 0

	return nil
}
