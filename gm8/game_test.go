package gm8

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailith/gmextract/internal/byteio"
)

func deflate(t *testing.T, b []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeChunk(t *testing.T, w *byteio.Writer, b []byte) {
	t.Helper()

	z := deflate(t, b)
	w.Uint32(uint32(len(z)))
	w.Write(z)
}

type containerFixture struct {
	constantCount uint32
	soundChunks   [][]byte
	spriteChunks  [][]byte

	// rawSoundChunk is written with a length prefix but without
	// compression, counting as one further sound slot
	rawSoundChunk []byte
}

// buildContainer assembles a minimal but complete executable image: MZ
// header, format marker, settings and DLL sections, and a scrambled asset
// region holding the section sequence.
func buildContainer(t *testing.T, f containerFixture) []byte {
	t.Helper()

	region := new(byteio.Writer)

	// dead fields: count of 2, skipped as (2+6)*4 bytes
	region.Uint32(2)
	region.Write(make([]byte, 32))

	region.Uint32(700) // extensions
	region.Uint32(0)
	region.Uint32(800) // triggers
	region.Uint32(0)
	region.Uint32(800) // constants
	region.Uint32(f.constantCount)

	soundCount := len(f.soundChunks)
	if f.rawSoundChunk != nil {
		soundCount++
	}
	region.Uint32(800) // sounds
	region.Uint32(uint32(soundCount))
	for _, c := range f.soundChunks {
		writeChunk(t, region, c)
	}
	if f.rawSoundChunk != nil {
		region.Uint32(uint32(len(f.rawSoundChunk)))
		region.Write(f.rawSoundChunk)
	}

	region.Uint32(800) // sprites
	region.Uint32(uint32(len(f.spriteChunks)))
	for _, c := range f.spriteChunks {
		writeChunk(t, region, c)
	}

	w := new(byteio.Writer)
	w.Write([]byte("MZ"))
	w.Write(make([]byte, magicPos-2))
	w.Uint32(magic)
	w.Write(make([]byte, 12)) // version/build block

	writeChunk(t, w, []byte("settings")) // settings chunk, content opaque

	w.PascalString("D3DX8.dll")
	w.Uint32(16)
	w.Write(make([]byte, 16))

	swap := testSwapTable()
	w.Write(cryptSection(swap, 2, 1, region.Bytes()))

	b := w.Bytes()
	scramble(b, len(b)-region.Len(), region.Len(), &swap)
	return b
}

func emptySlot() []byte {
	w := new(byteio.Writer)
	w.Uint32(0)
	return w.Bytes()
}

func TestGameUnmarshalBinary(t *testing.T) {
	b := buildContainer(t, containerFixture{
		soundChunks: [][]byte{
			soundRecord([]byte{'R', 'I', 'F', 'F'}),
			emptySlot(),
		},
	})

	g := new(Game)
	require.NoError(t, g.UnmarshalBinary(b))

	require.Len(t, g.Sounds, 2)
	require.NotNil(t, g.Sounds[0])
	assert.Equal(t, "snd_jump", g.Sounds[0].Name)
	assert.Nil(t, g.Sounds[1])

	assert.Empty(t, g.Sprites)
}

func TestGameUnmarshalBinarySprites(t *testing.T) {
	b := buildContainer(t, containerFixture{
		soundChunks: [][]byte{emptySlot()},
		spriteChunks: [][]byte{
			spriteRecord([]spriteFrame{{width: 2, height: 2}}, false),
			emptySlot(),
		},
	})

	g := new(Game)
	require.NoError(t, g.UnmarshalBinary(b))

	require.Len(t, g.Sprites, 2)
	require.NotNil(t, g.Sprites[0])
	assert.Equal(t, "spr_player", g.Sprites[0].Name)
	assert.Equal(t, uint32(2), g.Sprites[0].Width)
	assert.Nil(t, g.Sprites[1])
}

func TestGameInvalidExeHeader(t *testing.T) {
	err := new(Game).UnmarshalBinary([]byte("ELF, or something"))
	assert.ErrorIs(t, err, errInvalidExeHeader)
}

func TestGameInvalidMagic(t *testing.T) {
	b := buildContainer(t, containerFixture{})
	b[magicPos]++

	err := new(Game).UnmarshalBinary(b)
	assert.ErrorIs(t, err, errInvalidMagic)

	// too short to even hold the marker is the same failure
	err = new(Game).UnmarshalBinary([]byte("MZ"))
	assert.ErrorIs(t, err, errInvalidMagic)
}

func TestGameUnsupportedSection(t *testing.T) {
	b := buildContainer(t, containerFixture{constantCount: 3})

	err := new(Game).UnmarshalBinary(b)
	require.ErrorIs(t, err, errUnsupportedSection)
	assert.Contains(t, err.Error(), "constants")

	// lenient mode preserves the old read-and-carry-on behaviour
	g := &Game{Lenient: true}
	require.NoError(t, g.UnmarshalBinary(b))
	assert.Empty(t, g.Sounds)
}

func TestGameBadChunk(t *testing.T) {
	// a malformed compressed stream fails the whole run with the slot
	// position attached
	b := buildContainer(t, containerFixture{
		soundChunks:   [][]byte{soundRecord(nil)},
		rawSoundChunk: []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x00},
	})

	err := new(Game).UnmarshalBinary(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sound 1")
	assert.Contains(t, err.Error(), "inflate")
}
