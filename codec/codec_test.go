package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(16)
	w.WriteUint8(0x42)
	w.WriteUint32(0xDEADBEEF)
	w.WriteUint64(1 << 40)
	w.WriteFloat32(1.5)
	w.WriteFloat64(math.Pi)
	w.WriteUvarint(300)
	w.WriteVarint(-7)
	w.WriteBytes([]byte("abc"))

	r := NewReader(w.Bytes())

	u8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), u8)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), u64)

	f32, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)

	f64, err := r.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, math.Pi, f64)

	uv, err := r.ReadUvarint()
	require.NoError(t, err)
	assert.Equal(t, uint64(300), uv)

	sv, err := r.ReadVarint()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), sv)

	b, err := r.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)

	assert.Equal(t, 0, r.Remaining())
	assert.Equal(t, w.Len(), r.Pos())
}

func TestLittleEndianLayout(t *testing.T) {
	w := NewWriter(0)
	w.WriteUint64(0x0102030405060708)
	assert.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, w.Bytes())
}

func TestShortBuffer(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})

	_, err := r.ReadUint64()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortBuffer))

	var sbe *ShortBufferError
	require.True(t, errors.As(err, &sbe))
	assert.Equal(t, 8, sbe.Need)
	assert.Equal(t, 3, sbe.Remaining)

	// A failed read does not advance the cursor.
	assert.Equal(t, 0, r.Pos())

	_, err = r.ReadBytes(4)
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = r.ReadBytes(-1)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestVarintErrors(t *testing.T) {
	_, err := NewReader(nil).ReadUvarint()
	assert.ErrorIs(t, err, ErrShortBuffer)

	// Continuation bit set on the last byte.
	_, err = NewReader([]byte{0x80}).ReadUvarint()
	assert.ErrorIs(t, err, ErrShortBuffer)

	overflow := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	_, err = NewReader(overflow).ReadUvarint()
	assert.ErrorIs(t, err, ErrMalformedVarint)
}
