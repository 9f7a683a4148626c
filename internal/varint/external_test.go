package varint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExternalUnsignedEncoding(t *testing.T) {
	cases := []struct {
		valueRange uint64
		want       int
	}{
		{0, 1},
		{255, 1},
		{256, 2},
		{65535, 2},
		{65536, 3},
		{16777215, 3},
		{16777216, 4},
		{^uint64(0), 8},
	}

	for _, c := range cases {
		require.Equal(t, c.want, ExternalUnsignedEncoding(c.valueRange), "range=%d", c.valueRange)
	}
}

func TestPutGetExternal_RoundTrip(t *testing.T) {
	for w := 1; w <= MaxExternalWidth; w++ {
		maxVal := uint64(1)<<(uint(w)*8) - 1
		if w == 8 {
			maxVal = ^uint64(0)
		}

		for _, v := range []uint64{0, 1, maxVal / 2, maxVal} {
			buf := make([]byte, w)
			PutExternal(buf, v, w)
			got := GetExternal(buf, w)
			require.Equal(t, v, got, "width=%d value=%d", w, v)
		}
	}
}

func TestPutExternal_LittleEndianByteOrder(t *testing.T) {
	buf := make([]byte, 4)
	PutExternal(buf, 0x01020304, 4)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
}
