package varint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetTagged_RoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 15, 16, 17, 127, 255, 256,
		1 << 12, 1<<16 - 1, 1 << 20,
		1 << 32, 1<<40 + 7, 1 << 60,
		^uint64(0), ^uint64(0) - 1,
	}

	for _, v := range values {
		var buf [MaxTaggedLen]byte
		n := PutTagged(buf[:], v)
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, MaxTaggedLen)

		got, consumed := GetTagged(buf[:])
		require.Equal(t, n, consumed)
		require.Equal(t, v, got)
	}
}

func TestPutTagged_ZeroEncodesOneByte(t *testing.T) {
	var buf [MaxTaggedLen]byte
	n := PutTagged(buf[:], 0)
	require.Equal(t, 1, n)
	require.Equal(t, byte(0x00), buf[0])
}

func TestTaggedLen_PeeksWithoutFullBuffer(t *testing.T) {
	var buf [MaxTaggedLen]byte
	n := PutTagged(buf[:], 1<<40)

	// TaggedLen only needs byte 0, even though the encoding is n bytes long.
	got := TaggedLen(buf[:1])
	require.Equal(t, n, got)
}

func TestGetTagged_TruncatedBuffer(t *testing.T) {
	var buf [MaxTaggedLen]byte
	n := PutTagged(buf[:], 1<<40)
	require.Greater(t, n, 1)

	v, consumed := GetTagged(buf[:n-1])
	require.Equal(t, InvalidWidth, consumed)
	require.Equal(t, uint64(0), v)
}

func TestGetTagged_EmptyBuffer(t *testing.T) {
	v, consumed := GetTagged(nil)
	require.Equal(t, InvalidWidth, consumed)
	require.Equal(t, uint64(0), v)
}

func TestGetTagged_InvalidTagNibble(t *testing.T) {
	buf := []byte{0x0F, 0, 0, 0, 0, 0, 0, 0, 0} // tag nibble 15, unused
	v, consumed := GetTagged(buf)
	require.Equal(t, InvalidWidth, consumed)
	require.Equal(t, uint64(0), v)
}

func TestTaggedWidth_Monotonic(t *testing.T) {
	boundaries := []uint64{0, 1 << 4, 1 << 12, 1 << 20, 1 << 28, 1 << 36, 1 << 44, 1 << 52, 1 << 60}

	var prev int
	for _, v := range boundaries {
		n := TaggedSize(v)
		require.GreaterOrEqual(t, n, prev)
		prev = n
	}
}

func TestAppendTagged(t *testing.T) {
	buf := []byte{0xAA}
	buf = AppendTagged(buf, 300)

	require.Equal(t, byte(0xAA), buf[0])

	v, n := GetTagged(buf[1:])
	require.Equal(t, uint64(300), v)
	require.Equal(t, len(buf)-1, n)
}
