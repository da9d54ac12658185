package gmres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailith/gmextract/internal/byteio"
)

func TestSoundRoundTrip(t *testing.T) {
	in := &Sound{
		Name:      "snd_theme",
		Extension: ".mid",
		Source:    "theme.mid",
		Data:      []byte{0x4d, 0x54, 0x68, 0x64},
		Kind:      BackgroundMusic,
		Effects:   Effects{Echo: true, Reverb: true},
		Volume:    0.85,
		Pan:       -0.5,
		Preload:   true,
	}

	b, err := in.MarshalBinary()
	require.NoError(t, err)

	out := new(Sound)
	require.NoError(t, out.UnmarshalBinary(b))

	assert.Equal(t, in, out)
}

func TestSoundRoundTripNoData(t *testing.T) {
	in := &Sound{
		Name:      "snd_blank",
		Extension: ".wav",
		Volume:    1,
	}

	b, err := in.MarshalBinary()
	require.NoError(t, err)

	out := new(Sound)
	require.NoError(t, out.UnmarshalBinary(b))

	assert.Nil(t, out.Data)
	assert.Equal(t, in, out)
}

func TestSoundUnmarshalBadVersion(t *testing.T) {
	w := new(byteio.Writer)
	w.PascalString("snd")
	w.Uint32(530)

	err := new(Sound).UnmarshalBinary(w.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestSoundUnmarshalTruncated(t *testing.T) {
	in := &Sound{Name: "snd", Extension: ".wav", Source: "s.wav"}

	b, err := in.MarshalBinary()
	require.NoError(t, err)

	err = new(Sound).UnmarshalBinary(b[:len(b)-4])
	assert.ErrorIs(t, err, byteio.ErrTruncated)
}

func TestEffectsBits(t *testing.T) {
	all := Effects{Chorus: true, Echo: true, Flanger: true, Gargle: true, Reverb: true}
	assert.Equal(t, uint32(0x1f), all.bits())
	assert.Equal(t, all, effectsFromBits(0x1f))
	assert.Equal(t, Effects{}, effectsFromBits(0))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Normal", Normal.String())
	assert.Equal(t, "Multimedia", Multimedia.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
