package persistence

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	compressions := []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD}

	for _, ct := range compressions {
		t.Run(ct.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, ct)

			require.NoError(t, w.WriteHeader(KindDense))
			require.NoError(t, w.WriteUint32(42))
			require.NoError(t, w.WriteUint64(1<<40))
			require.NoError(t, w.WriteString("hello"))
			require.NoError(t, w.WriteStringSlice([]string{"a", "b", "c"}))
			require.NoError(t, w.WriteBytes([]byte{1, 2, 3}))
			require.NoError(t, w.WriteFloat32Block([]float32{1.5, -2.5, 0}))
			require.NoError(t, w.WriteFloat64Block([]float64{3.25, -1}))
			require.NoError(t, w.WriteInt64Block([]int64{-7, 9}))
			require.NoError(t, w.WriteBoolBlock([]bool{true, false, true}))
			require.NoError(t, w.Finish())

			r, err := NewReader(buf.Bytes())
			require.NoError(t, err)
			require.NoError(t, r.ReadHeader(KindDense))

			u32, err := r.ReadUint32()
			require.NoError(t, err)
			assert.Equal(t, uint32(42), u32)

			u64, err := r.ReadUint64()
			require.NoError(t, err)
			assert.Equal(t, uint64(1<<40), u64)

			s, err := r.ReadString()
			require.NoError(t, err)
			assert.Equal(t, "hello", s)

			ss, err := r.ReadStringSlice()
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, ss)

			b, err := r.ReadBytes()
			require.NoError(t, err)
			assert.Equal(t, []byte{1, 2, 3}, b)

			f32, err := r.ReadFloat32Block()
			require.NoError(t, err)
			assert.Equal(t, []float32{1.5, -2.5, 0}, f32)

			f64, err := r.ReadFloat64Block()
			require.NoError(t, err)
			assert.Equal(t, []float64{3.25, -1}, f64)

			i64, err := r.ReadInt64Block()
			require.NoError(t, err)
			assert.Equal(t, []int64{-7, 9}, i64)

			bools, err := r.ReadBoolBlock()
			require.NoError(t, err)
			assert.Equal(t, []bool{true, false, true}, bools)
		})
	}
}

func TestEmptyBlocks(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, CompressionZSTD)

	require.NoError(t, w.WriteHeader(KindDense))
	require.NoError(t, w.WriteFloat32Block(nil))
	require.NoError(t, w.WriteStringSlice(nil))
	require.NoError(t, w.Finish())

	r, err := NewReader(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, r.ReadHeader(KindDense))

	f32, err := r.ReadFloat32Block()
	require.NoError(t, err)
	assert.Empty(t, f32)

	ss, err := r.ReadStringSlice()
	require.NoError(t, err)
	assert.Empty(t, ss)
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, CompressionNone)
	require.NoError(t, w.WriteHeader(KindIndex))
	require.NoError(t, w.WriteString("payload"))
	require.NoError(t, w.Finish())

	data := buf.Bytes()
	data[len(data)/2] ^= 0xff

	_, err := NewReader(data)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestReadHeaderValidation(t *testing.T) {
	t.Run("WrongKind", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewWriter(&buf, CompressionNone)
		require.NoError(t, w.WriteHeader(KindIndex))
		require.NoError(t, w.Finish())

		r, err := NewReader(buf.Bytes())
		require.NoError(t, err)
		assert.ErrorIs(t, r.ReadHeader(KindDense), ErrInvalidKind)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := NewReader([]byte{1, 2, 3})
		assert.Error(t, err)
	})
}

func TestCompressBlock(t *testing.T) {
	// highly compressible payload
	data := bytes.Repeat([]byte("abcdefgh"), 1024)

	for _, ct := range []CompressionType{CompressionLZ4, CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			block, err := compressBlock(data, ct)
			require.NoError(t, err)
			assert.Less(t, len(block), len(data))

			out, err := decompressBlock(block, ct)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressBlockIncompressible(t *testing.T) {
	// pseudo-random payload stays raw because compression would not pay off
	data := make([]byte, 4096)
	state := uint32(2463534242)
	for i := range data {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		data[i] = byte(state)
	}

	block, err := compressBlock(data, CompressionZSTD)
	require.NoError(t, err)

	out, err := decompressBlock(block, CompressionZSTD)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}
