package lossless

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 4096)
	rng.Read(random)

	inputs := map[string][]byte{
		"Empty":      {},
		"Repetitive": bytes.Repeat([]byte("selection"), 1000),
		"Random":     random,
	}

	for _, typ := range []Type{None, LZ4, Zstd} {
		for name, data := range inputs {
			t.Run(typ.String()+"/"+name, func(t *testing.T) {
				block, err := Compress(data, typ)
				require.NoError(t, err)

				got, err := Decompress(block, typ)
				require.NoError(t, err)
				assert.Equal(t, len(data), len(got))
				assert.True(t, bytes.Equal(data, got))
			})
		}
	}
}

func TestCompressShrinksRepetitiveData(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 10000)
	for _, typ := range []Type{LZ4, Zstd} {
		block, err := Compress(data, typ)
		require.NoError(t, err)
		assert.Less(t, len(block), len(data)/10, typ.String())
	}
}

func TestStoredWhenIncompressible(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	data := make([]byte, 1024)
	rng.Read(data)

	block, err := Compress(data, Zstd)
	require.NoError(t, err)
	assert.Len(t, block, headerSize+len(data))
}

func TestParseType(t *testing.T) {
	for _, typ := range []Type{None, LZ4, Zstd} {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseType("brotli")
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Equal(t, "unknown(9)", Type(9).String())
}

func TestDecompressErrors(t *testing.T) {
	data := bytes.Repeat([]byte("abcd"), 512)

	_, err := Compress(data, Type(7))
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = Decompress(nil, Type(7))
	assert.ErrorIs(t, err, ErrUnknownType)

	for _, typ := range []Type{LZ4, Zstd} {
		block, err := Compress(data, typ)
		require.NoError(t, err)

		_, err = Decompress(block[:10], typ)
		assert.ErrorIs(t, err, ErrCorrupt)

		_, err = Decompress(block[:len(block)-1], typ)
		assert.ErrorIs(t, err, ErrCorrupt)

		// A compressed block read with the stored-only type.
		_, err = Decompress(block, None)
		assert.ErrorIs(t, err, ErrCorrupt)
	}
}

func TestDecompressRejectsTrailingBytes(t *testing.T) {
	data := bytes.Repeat([]byte("abcd"), 512)

	for _, typ := range []Type{None, LZ4, Zstd} {
		t.Run(typ.String(), func(t *testing.T) {
			block, err := Compress(data, typ)
			require.NoError(t, err)

			_, err = Decompress(append(block, 0), typ)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDecompressBoundsRawSize(t *testing.T) {
	data := bytes.Repeat([]byte("abcd"), 512)

	for _, typ := range []Type{LZ4, Zstd} {
		t.Run(typ.String(), func(t *testing.T) {
			block, err := Compress(data, typ)
			require.NoError(t, err)
			require.NotZero(t, binary.LittleEndian.Uint64(block[8:16]))

			// Header claims less than the payload decodes to.
			short := bytes.Clone(block)
			binary.LittleEndian.PutUint64(short[:8], uint64(len(data)/2))
			_, err = Decompress(short, typ)
			assert.ErrorIs(t, err, ErrCorrupt)

			// Header claims more than any block may hold.
			huge := bytes.Clone(block)
			binary.LittleEndian.PutUint64(huge[:8], maxRawSize+1)
			_, err = Decompress(huge, typ)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}
